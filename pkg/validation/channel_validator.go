package validation

import (
	"math"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// ChannelThresholds defines configurable thresholds for channel data checks
type ChannelThresholds struct {
	// Fraction of samples that may be NaN or infinite before warning
	MaxNonFiniteFraction float64

	// Fraction of samples that may sit outside [0,1] before warning
	MaxOutOfRangeFraction float64

	// Fraction of samples that may be clipped at 1 before warning
	MaxClippedFraction float64

	// Plane size below which background search has little to choose from
	MinWidth  int
	MinHeight int
}

// DefaultChannelThresholds returns the default channel thresholds
func DefaultChannelThresholds() ChannelThresholds {
	return ChannelThresholds{
		MaxNonFiniteFraction:  0.0,
		MaxOutOfRangeFraction: 0.0,
		MaxClippedFraction:    0.05,
		MinWidth:              64,
		MinHeight:             64,
	}
}

// ChannelValidator handles channel data validation logic
type ChannelValidator struct {
	thresholds ChannelThresholds
}

// NewChannelValidator creates a new channel validator with default thresholds
func NewChannelValidator() *ChannelValidator {
	return &ChannelValidator{
		thresholds: DefaultChannelThresholds(),
	}
}

// NewChannelValidatorWithThresholds creates a channel validator with custom thresholds
func NewChannelValidatorWithThresholds(thresholds ChannelThresholds) *ChannelValidator {
	return &ChannelValidator{
		thresholds: thresholds,
	}
}

// ChannelIssue represents a channel validation issue
type ChannelIssue struct {
	Channel     string  `json:"channel"`
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// ValidatePlane checks the geometry and sample values of a channel plane
func (cv *ChannelValidator) ValidatePlane(id string, plane models.Plane) []ChannelIssue {
	var issues []ChannelIssue

	// 1. Geometry
	if !plane.Consistent() {
		return append(issues, ChannelIssue{
			Channel:     id,
			Type:        "inconsistent_plane",
			Message:     "Sample count does not match width x height.",
			Severity:    "error",
			ActualValue: float64(len(plane.Samples)),
			Threshold:   float64(plane.Width * plane.Height),
		})
	}
	if plane.Width < cv.thresholds.MinWidth || plane.Height < cv.thresholds.MinHeight {
		issues = append(issues, ChannelIssue{
			Channel:     id,
			Type:        "small_plane",
			Message:     "Channel is small; background search has few candidates.",
			Severity:    "info",
			ActualValue: float64(plane.Width * plane.Height),
			Threshold:   float64(cv.thresholds.MinWidth * cv.thresholds.MinHeight),
		})
	}

	// 2. Sample values
	var nonFinite, outOfRange, clipped int
	for _, v := range plane.Samples {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			nonFinite++
		case v < 0 || v > 1:
			outOfRange++
		case v == 1:
			clipped++
		}
	}
	n := float64(len(plane.Samples))

	if frac := float64(nonFinite) / n; frac > cv.thresholds.MaxNonFiniteFraction {
		severity := "warning"
		if nonFinite == len(plane.Samples) {
			severity = "error"
		}
		issues = append(issues, ChannelIssue{
			Channel:     id,
			Type:        "non_finite_samples",
			Message:     "Channel contains NaN or infinite samples; they are ignored.",
			Severity:    severity,
			ActualValue: frac,
			Threshold:   cv.thresholds.MaxNonFiniteFraction,
		})
	}
	if frac := float64(outOfRange) / n; frac > cv.thresholds.MaxOutOfRangeFraction {
		issues = append(issues, ChannelIssue{
			Channel:     id,
			Type:        "out_of_range",
			Message:     "Channel has samples outside [0,1]; stretch parameters assume normalized data.",
			Severity:    "warning",
			ActualValue: frac,
			Threshold:   cv.thresholds.MaxOutOfRangeFraction,
		})
	}
	if frac := float64(clipped) / n; frac > cv.thresholds.MaxClippedFraction {
		issues = append(issues, ChannelIssue{
			Channel:     id,
			Type:        "clipped",
			Message:     "Channel has many saturated samples.",
			Severity:    "warning",
			ActualValue: frac,
			Threshold:   cv.thresholds.MaxClippedFraction,
		})
	}

	return issues
}

// ValidateStatistics checks computed or supplied statistics for degenerate values
func (cv *ChannelValidator) ValidateStatistics(id string, stats models.RobustStatistics) []ChannelIssue {
	var issues []ChannelIssue

	if stats.Strength == 0 {
		issues = append(issues, ChannelIssue{
			Channel:  id,
			Type:     "flat_channel",
			Message:  "Channel has no measurable dispersion; it cannot anchor a mix.",
			Severity: "warning",
		})
	}
	if !stats.MADAvailable && stats.StandardDeviation != 0 {
		issues = append(issues, ChannelIssue{
			Channel:  id,
			Type:     "missing_mad",
			Message:  "No MAD available; the standard deviation stands in for it.",
			Severity: "info",
		})
	}

	return issues
}

// ConvertIssuesToMessages converts channel issues to plain messages
func (cv *ChannelValidator) ConvertIssuesToMessages(issues []ChannelIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Channel+": "+issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (cv *ChannelValidator) HasCriticalIssues(issues []ChannelIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
