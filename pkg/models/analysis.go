package models

import (
	"fmt"
	"strings"
	"time"
)

// RobustStatistics holds the central tendency and dispersion estimators of one
// channel's sample buffer. An empty buffer yields the zero record.
type RobustStatistics struct {
	Count                   int     `json:"count"`
	Mean                    float64 `json:"mean"`
	Median                  float64 `json:"median"`
	StandardDeviation       float64 `json:"standard_deviation"`
	MedianAbsoluteDeviation float64 `json:"median_absolute_deviation"`
	// MADAvailable is false when the MAD could not be computed or was not
	// supplied by an external statistics source; ScaledMAD then carries the
	// standard deviation.
	MADAvailable bool    `json:"mad_available"`
	ScaledMAD    float64 `json:"scaled_mad"`
	Strength     float64 `json:"strength"`
}

// ChannelRecord is the ranking input for reference selection.
type ChannelRecord struct {
	ID     string  `json:"id"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Delta  float64 `json:"delta"`
}

// ChannelStatistics pairs a channel id with its statistics and record.
type ChannelStatistics struct {
	ID         string           `json:"id"`
	Statistics RobustStatistics `json:"statistics"`
	Record     ChannelRecord    `json:"record"`
}

// Region is a rectangle in pixel coordinates.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the exclusive right edge.
func (r Region) Right() int { return r.Left + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Region) Bottom() int { return r.Top + r.Height }

// BackgroundResult is the outcome of a background region search.
type BackgroundResult struct {
	Region     Region  `json:"region"`
	Score      float64 `json:"score"`
	Median     float64 `json:"median"`
	MAD        float64 `json:"mad"`
	Candidates int     `json:"candidates"`
	// MarginApplied is false when the border margin left no room and the
	// whole image was searched.
	MarginApplied bool `json:"margin_applied"`
}

// ChannelMapping assigns channel ids to the three output roles. Green is
// always the anchor.
type ChannelMapping struct {
	Red     string `json:"red"`
	Green   string `json:"green"`
	Blue    string `json:"blue"`
	Palette string `json:"palette,omitempty"`
}

// Channels returns the distinct channel ids of the mapping in role order.
func (m ChannelMapping) Channels() []string {
	out := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	for _, id := range []string{m.Red, m.Green, m.Blue} {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// MixExpressions are the per-role combination expressions.
type MixExpressions struct {
	Red         string  `json:"red"`
	Green       string  `json:"green"`
	Blue        string  `json:"blue"`
	RedAlpha    float64 `json:"red_alpha"`
	BlueAlpha   float64 `json:"blue_alpha"`
	PassThrough bool    `json:"pass_through"`
}

// ReferencePolicy picks which ranked channel anchors scale normalization.
type ReferencePolicy int

const (
	ReferenceLowest ReferencePolicy = iota
	ReferenceMedium
	ReferenceHighest
)

func (p ReferencePolicy) String() string {
	switch p {
	case ReferenceLowest:
		return "lowest"
	case ReferenceMedium:
		return "medium"
	case ReferenceHighest:
		return "highest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// MarshalText encodes the policy by name.
func (p ReferencePolicy) MarshalText() ([]byte, error) {
	if p < ReferenceLowest || p > ReferenceHighest {
		return nil, fmt.Errorf("unknown reference policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy name.
func (p *ReferencePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseReferencePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseReferencePolicy accepts lowest|medium|highest (case-insensitive) or
// the numeric ids 0|1|2.
func ParseReferencePolicy(s string) (ReferencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowest", "low", "0":
		return ReferenceLowest, nil
	case "medium", "mid", "1":
		return ReferenceMedium, nil
	case "highest", "high", "2":
		return ReferenceHighest, nil
	}
	return ReferenceHighest, fmt.Errorf("unknown reference policy %q", s)
}

// ReferenceRanking is the ascending finite-delta ordering of channel records.
type ReferenceRanking struct {
	Ranked      []ChannelRecord `json:"ranked"`
	Lowest      ChannelRecord   `json:"lowest"`
	Medium      ChannelRecord   `json:"medium"`
	Highest     ChannelRecord   `json:"highest"`
	HighestMean ChannelRecord   `json:"highest_mean"`
}

// StretchChannel holds histogram transform parameters for one channel.
type StretchChannel struct {
	Shadows    float64 `json:"shadows"`
	Midtones   float64 `json:"midtones"`
	Highlights float64 `json:"highlights"`
}

// StretchParameters parameterize an external screen/histogram stretch.
type StretchParameters struct {
	Linked   bool             `json:"linked"`
	Inverted bool             `json:"inverted"`
	Channels []StretchChannel `json:"channels"`
}

// DecisionPlan is the full set of decisions derived from a channel set.
type DecisionPlan struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`
	// StepTimings holds milliseconds spent per pipeline step
	StepTimings       map[string]float64  `json:"step_timings_ms"`
	Policy            ReferencePolicy     `json:"policy"`
	Channels          []ChannelStatistics `json:"channels"`
	Ranking           *ReferenceRanking   `json:"ranking,omitempty"`
	Reference         ChannelRecord       `json:"reference"`
	ReferenceFallback bool                `json:"reference_fallback"`
	Mapping           ChannelMapping      `json:"mapping"`
	Mix               MixExpressions      `json:"mix"`
	BackgroundChannel string              `json:"background_channel,omitempty"`
	Background        *BackgroundResult   `json:"background,omitempty"`
	Stretch           *StretchParameters  `json:"stretch,omitempty"`
	Warnings          []string            `json:"warnings,omitempty"`
	Errors            []string            `json:"errors,omitempty"`
}

// ForPolicy returns the ranked record a policy designates. Unknown policies
// designate the lowest.
func (r ReferenceRanking) ForPolicy(p ReferencePolicy) ChannelRecord {
	switch p {
	case ReferenceHighest:
		return r.Highest
	case ReferenceMedium:
		return r.Medium
	default:
		return r.Lowest
	}
}
