package validation

import (
	"math"
	"testing"

	"github.com/anime-shed/channel-engine/pkg/models"
)

func uniformPlane(width, height int, value float64) models.Plane {
	samples := make([]float64, width*height)
	for i := range samples {
		samples[i] = value
	}
	return models.Plane{Width: width, Height: height, Samples: samples}
}

func issueTypes(issues []ChannelIssue) map[string]string {
	out := make(map[string]string, len(issues))
	for _, issue := range issues {
		out[issue.Type] = issue.Severity
	}
	return out
}

func TestValidatePlane_Clean(t *testing.T) {
	validator := NewChannelValidator()
	issues := validator.ValidatePlane("Ha", uniformPlane(100, 100, 0.2))
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %+v", issues)
	}
}

func TestValidatePlane_Issues(t *testing.T) {
	validator := NewChannelValidator()

	testCases := []struct {
		name         string
		plane        models.Plane
		wantType     string
		wantSeverity string
	}{
		{"Inconsistent", models.Plane{Width: 10, Height: 10, Samples: make([]float64, 5)}, "inconsistent_plane", "error"},
		{"Small", uniformPlane(10, 10, 0.2), "small_plane", "info"},
		{"AllNaN", uniformPlane(100, 100, math.NaN()), "non_finite_samples", "error"},
		{"Negative", uniformPlane(100, 100, -0.1), "out_of_range", "warning"},
		{"Clipped", uniformPlane(100, 100, 1), "clipped", "warning"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := issueTypes(validator.ValidatePlane("Ha", tc.plane))
			severity, ok := got[tc.wantType]
			if !ok {
				t.Fatalf("Expected %s issue, got %v", tc.wantType, got)
			}
			if severity != tc.wantSeverity {
				t.Errorf("Expected %s severity, got %s", tc.wantSeverity, severity)
			}
		})
	}
}

func TestValidatePlane_PartialNaNIsWarning(t *testing.T) {
	plane := uniformPlane(100, 100, 0.2)
	plane.Samples[0] = math.NaN()

	issues := NewChannelValidator().ValidatePlane("Oiii", plane)
	if got := issueTypes(issues)["non_finite_samples"]; got != "warning" {
		t.Errorf("Expected warning, got %q", got)
	}
	if NewChannelValidator().HasCriticalIssues(issues) {
		t.Error("Expected no critical issues")
	}
}

func TestValidateStatistics(t *testing.T) {
	validator := NewChannelValidator()

	flat := issueTypes(validator.ValidateStatistics("G", models.RobustStatistics{Count: 10, Median: 0.1}))
	if _, ok := flat["flat_channel"]; !ok {
		t.Error("Expected flat_channel issue")
	}

	supplied := issueTypes(validator.ValidateStatistics("G", models.RobustStatistics{StandardDeviation: 0.05, ScaledMAD: 0.05, Strength: 0.05}))
	if _, ok := supplied["missing_mad"]; !ok {
		t.Error("Expected missing_mad issue")
	}
}

func TestConvertIssuesToMessages(t *testing.T) {
	validator := NewChannelValidator()
	messages := validator.ConvertIssuesToMessages([]ChannelIssue{
		{Channel: "Ha", Message: "first"},
		{Channel: "Sii", Message: "second"},
	})

	expected := []string{"Ha: first", "Sii: second"}
	if len(messages) != len(expected) {
		t.Fatalf("Expected %d messages, got %d", len(expected), len(messages))
	}
	for i := range expected {
		if messages[i] != expected[i] {
			t.Errorf("Expected %q, got %q", expected[i], messages[i])
		}
	}
}

func TestHasCriticalIssues(t *testing.T) {
	validator := NewChannelValidator()

	if !validator.HasCriticalIssues([]ChannelIssue{{Severity: "warning"}, {Severity: "error"}}) {
		t.Error("Expected critical issues when error severity present")
	}
	if validator.HasCriticalIssues([]ChannelIssue{{Severity: "warning"}, {Severity: "info"}}) {
		t.Error("Expected no critical issues when only warnings and info present")
	}
}
