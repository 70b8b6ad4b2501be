package models

// ChannelInput describes one channel in a request. Exactly one of Source,
// Samples or Statistics is expected; Samples require Width and Height.
type ChannelInput struct {
	ID string `json:"id" binding:"required"`
	// Source is an http(s) URL, an azblob://container/blob location or a
	// local path (file:// or bare).
	Source string `json:"source,omitempty"`
	// ChannelIndex selects the color component of a decoded source (0..2).
	ChannelIndex int       `json:"channel_index,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Samples      []float64 `json:"samples,omitempty"`
	// Statistics carries values from an external statistics provider, keyed by
	// whatever field names that provider uses.
	Statistics map[string]float64 `json:"statistics,omitempty"`
}

// RecordInput is a pre-computed channel record. Missing values make the
// channel ineligible for reference selection.
type RecordInput struct {
	ID     string   `json:"id" binding:"required"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
}

// StatisticsRequest asks for robust statistics of each channel.
type StatisticsRequest struct {
	Channels []ChannelInput `json:"channels" binding:"required,min=1,dive"`
}

// StatisticsResponse lists per-channel statistics in request order.
type StatisticsResponse struct {
	Channels []ChannelStatistics `json:"channels"`
}

// BackgroundRequest asks for the most background-like region of a channel.
type BackgroundRequest struct {
	Channel      ChannelInput `json:"channel" binding:"required"`
	RegionWidth  int          `json:"region_width,omitempty"`
	RegionHeight int          `json:"region_height,omitempty"`
}

// ReferenceRequest asks for a reference channel, either from raw channels or
// from pre-computed records.
type ReferenceRequest struct {
	Channels []ChannelInput `json:"channels,omitempty" binding:"omitempty,dive"`
	Records  []RecordInput  `json:"records,omitempty" binding:"omitempty,dive"`
	Policy   string         `json:"policy,omitempty"`
}

// ReferenceResponse carries the selected reference and the full ranking.
type ReferenceResponse struct {
	Policy    ReferencePolicy  `json:"policy"`
	Reference ChannelRecord    `json:"reference"`
	Ranking   ReferenceRanking `json:"ranking"`
}

// MixRequest asks for combination expressions. Mapping overrides Palette.
type MixRequest struct {
	Mapping   *ChannelMapping    `json:"mapping,omitempty"`
	Palette   string             `json:"palette,omitempty"`
	Strengths map[string]float64 `json:"strengths" binding:"required"`
}

// StretchRequest asks for auto-stretch parameters of a set of channels.
type StretchRequest struct {
	Channels []ChannelInput `json:"channels" binding:"required,min=1,dive"`
	Linked   *bool          `json:"linked,omitempty"`
}

// PlanRequest asks for the complete decision plan of a channel set.
type PlanRequest struct {
	Channels          []ChannelInput  `json:"channels" binding:"required,min=1,dive"`
	Policy            string          `json:"policy,omitempty"`
	Palette           string          `json:"palette,omitempty"`
	Mapping           *ChannelMapping `json:"mapping,omitempty"`
	BackgroundChannel string          `json:"background_channel,omitempty"`
	RegionWidth       int             `json:"region_width,omitempty"`
	RegionHeight      int             `json:"region_height,omitempty"`
	SkipBackground    bool            `json:"skip_background,omitempty"`
	SkipStretch       bool            `json:"skip_stretch,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}
