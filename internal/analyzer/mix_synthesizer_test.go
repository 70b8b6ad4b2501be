package analyzer

import (
	"math"
	"testing"

	"github.com/anime-shed/channel-engine/pkg/models"
)

var rgbMapping = models.ChannelMapping{Red: "R", Green: "G", Blue: "B"}

func TestSynthesizeMixExpression_EndToEnd(t *testing.T) {
	got := SynthesizeMixExpression(rgbMapping, map[string]float64{"G": 1.0, "R": 0.40, "B": 0.95})

	if got.Red != "(R * 0.815) + (G * 0.185)" {
		t.Errorf("Unexpected red expression %q", got.Red)
	}
	if got.Green != "G" {
		t.Errorf("Expected green G, got %q", got.Green)
	}
	if got.Blue != "B" {
		t.Errorf("Expected blue B, got %q", got.Blue)
	}
	if math.Abs(got.RedAlpha-0.1853) > 1e-4 {
		t.Errorf("Expected red alpha ~0.1853, got %f", got.RedAlpha)
	}
	if got.BlueAlpha != 0 || got.PassThrough {
		t.Errorf("Unexpected blue alpha %f / pass-through %v", got.BlueAlpha, got.PassThrough)
	}
}

func TestMixAlpha_Boundaries(t *testing.T) {
	ms := NewMixSynthesizer(DefaultOptions())

	testCases := []struct {
		name  string
		ratio float64
		want  float64
	}{
		{"AtTrigger", 0.85, 0},
		{"AboveTrigger", 1.2, 0},
		{"Zero", 0, 0.35},
		{"Negative", -1, 0.35},
		{"Halfway", 0.425, 0.175},
		{"NaN", math.NaN(), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ms.Alpha(tc.ratio); math.Abs(got-tc.want) > tolerance {
				t.Errorf("Expected alpha %f, got %f", tc.want, got)
			}
		})
	}
}

func TestSynthesizeMixExpression_ZeroSideStrength(t *testing.T) {
	got := SynthesizeMixExpression(rgbMapping, map[string]float64{"G": 1.0, "R": 0, "B": 1.0})

	if got.Red != "(R * 0.650) + (G * 0.350)" {
		t.Errorf("Unexpected red expression %q", got.Red)
	}
	if got.RedAlpha != 0.35 {
		t.Errorf("Expected maximum alpha, got %f", got.RedAlpha)
	}
}

func TestSynthesizeMixExpression_PassThrough(t *testing.T) {
	testCases := []struct {
		name      string
		strengths map[string]float64
	}{
		{"ZeroAnchor", map[string]float64{"G": 0, "R": 0.4, "B": 0.4}},
		{"NegativeAnchor", map[string]float64{"G": -1, "R": 0.4, "B": 0.4}},
		{"NaNAnchor", map[string]float64{"G": math.NaN(), "R": 0.4, "B": 0.4}},
		{"InfAnchor", map[string]float64{"G": math.Inf(1), "R": 0.4, "B": 0.4}},
		{"NaNRed", map[string]float64{"G": 1, "R": math.NaN(), "B": 0.4}},
		{"NaNBlue", map[string]float64{"G": 1, "R": 0.4, "B": math.NaN()}},
		{"MissingBlue", map[string]float64{"G": 1, "R": 0.4}},
		{"Empty", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SynthesizeMixExpression(rgbMapping, tc.strengths)
			if got.Red != "R" || got.Green != "G" || got.Blue != "B" {
				t.Errorf("Expected plain ids, got %+v", got)
			}
			if !got.PassThrough {
				t.Error("Expected pass-through flag")
			}
		})
	}
}

func TestSynthesizeMixExpression_Deterministic(t *testing.T) {
	strengths := map[string]float64{"G": 0.731, "R": 0.219, "B": 0.402}
	first := SynthesizeMixExpression(rgbMapping, strengths)
	for i := 0; i < 10; i++ {
		if got := SynthesizeMixExpression(rgbMapping, strengths); got != first {
			t.Fatalf("Expected identical output, got %+v vs %+v", got, first)
		}
	}
}

func TestSynthesizeMixExpression_SharedChannel(t *testing.T) {
	// HOO-style mapping: green and blue share a channel
	mapping := models.ChannelMapping{Red: "Ha", Green: "Oiii", Blue: "Oiii"}
	got := SynthesizeMixExpression(mapping, map[string]float64{"Ha": 0.2, "Oiii": 1.0})

	if got.Blue != "Oiii" || got.BlueAlpha != 0 {
		t.Errorf("Expected blue to pass through, got %q (alpha %f)", got.Blue, got.BlueAlpha)
	}
	if got.RedAlpha <= 0 {
		t.Errorf("Expected red to borrow from the anchor, got alpha %f", got.RedAlpha)
	}
}

func TestSynthesizeMixExpression_CustomThresholds(t *testing.T) {
	ms := NewMixSynthesizer(DefaultOptions().WithMixThresholds(0.5, 0.2))
	got := ms.Synthesize(rgbMapping, map[string]float64{"G": 1, "R": 0.6, "B": 0.25})

	if got.Red != "R" {
		t.Errorf("Expected red above trigger to stay plain, got %q", got.Red)
	}
	// (0.5-0.25)/0.5*0.2 = 0.1
	if got.Blue != "(B * 0.900) + (G * 0.100)" {
		t.Errorf("Unexpected blue expression %q", got.Blue)
	}
}
