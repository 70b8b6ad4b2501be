package analyzer

import (
	"math"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	// Verify default values
	if opts.MADScale != 1.4826 {
		t.Errorf("Expected MADScale to be 1.4826, got %f", opts.MADScale)
	}
	if opts.StrengthMADWeight != 0.80 || opts.StrengthStdDevWeight != 0.20 {
		t.Errorf("Expected strength weights 0.80/0.20, got %f/%f", opts.StrengthMADWeight, opts.StrengthStdDevWeight)
	}
	if opts.BackgroundMarginFraction != 0.08 {
		t.Errorf("Expected BackgroundMarginFraction to be 0.08, got %f", opts.BackgroundMarginFraction)
	}
	if opts.BackgroundMinStep != 25 {
		t.Errorf("Expected BackgroundMinStep to be 25, got %d", opts.BackgroundMinStep)
	}
	if opts.BackgroundStride != 2 {
		t.Errorf("Expected BackgroundStride to be 2, got %d", opts.BackgroundStride)
	}
	if opts.BackgroundStructureWeight != 1.5 {
		t.Errorf("Expected BackgroundStructureWeight to be 1.5, got %f", opts.BackgroundStructureWeight)
	}
	if opts.MixTriggerRatio != 0.85 || opts.MixMaxAlpha != 0.35 {
		t.Errorf("Expected mix thresholds 0.85/0.35, got %f/%f", opts.MixTriggerRatio, opts.MixMaxAlpha)
	}
	if opts.StretchShadowsClipping != -2.80 || opts.StretchTargetBackground != 0.25 {
		t.Errorf("Expected stretch -2.80/0.25, got %f/%f", opts.StretchShadowsClipping, opts.StretchTargetBackground)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Expected default options to validate, got %v", err)
	}
}

func TestPreciseOptions(t *testing.T) {
	opts := PreciseOptions()

	if opts.BackgroundStride != 1 {
		t.Errorf("Expected BackgroundStride to be 1 for precise options, got %d", opts.BackgroundStride)
	}
	if opts.BackgroundMinStep != DefaultOptions().BackgroundMinStep {
		t.Errorf("Expected default BackgroundMinStep, got %d", opts.BackgroundMinStep)
	}
}

func TestFastOptions(t *testing.T) {
	opts := FastOptions()

	if opts.BackgroundStride != 4 {
		t.Errorf("Expected BackgroundStride to be 4 for fast options, got %d", opts.BackgroundStride)
	}
	if opts.BackgroundMinStep != 50 {
		t.Errorf("Expected BackgroundMinStep to be 50 for fast options, got %d", opts.BackgroundMinStep)
	}
}

func TestChainedOptions(t *testing.T) {
	base := DefaultOptions()
	opts := base.
		WithStrengthWeights(0.5, 0.5).
		WithMixThresholds(0.9, 0.25).
		WithBackgroundSearch(0.1, 10, 1, 2.0).
		WithStretch(-3.0, 0.2).
		WithMaxWorkers(3)

	if opts.StrengthMADWeight != 0.5 || opts.StrengthStdDevWeight != 0.5 {
		t.Errorf("Expected strength weights 0.5/0.5, got %f/%f", opts.StrengthMADWeight, opts.StrengthStdDevWeight)
	}
	if opts.MixTriggerRatio != 0.9 || opts.MixMaxAlpha != 0.25 {
		t.Errorf("Expected mix thresholds 0.9/0.25, got %f/%f", opts.MixTriggerRatio, opts.MixMaxAlpha)
	}
	if opts.BackgroundMarginFraction != 0.1 || opts.BackgroundMinStep != 10 || opts.BackgroundStride != 1 || opts.BackgroundStructureWeight != 2.0 {
		t.Errorf("Unexpected background search options: %+v", opts)
	}
	if opts.StretchShadowsClipping != -3.0 || opts.StretchTargetBackground != 0.2 {
		t.Errorf("Expected stretch -3.0/0.2, got %f/%f", opts.StretchShadowsClipping, opts.StretchTargetBackground)
	}
	if opts.MaxWorkers != 3 {
		t.Errorf("Expected MaxWorkers 3, got %d", opts.MaxWorkers)
	}

	// Builders must not modify the receiver
	if base.MixTriggerRatio != 0.85 {
		t.Errorf("Expected base options to be unchanged, got trigger %f", base.MixTriggerRatio)
	}
}

func TestValidate_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		opts EngineOptions
	}{
		{"ZeroMADScale", DefaultOptions().WithStrengthWeights(0.8, 0.2)},
		{"NegativeWeight", DefaultOptions().WithStrengthWeights(-0.1, 0.2)},
		{"NaNWeight", DefaultOptions().WithStrengthWeights(math.NaN(), 0.2)},
		{"MarginTooLarge", DefaultOptions().WithBackgroundSearch(0.5, 25, 2, 1.5)},
		{"ZeroStep", DefaultOptions().WithBackgroundSearch(0.08, 0, 2, 1.5)},
		{"ZeroStride", DefaultOptions().WithBackgroundSearch(0.08, 25, 0, 1.5)},
		{"ZeroTrigger", DefaultOptions().WithMixThresholds(0, 0.35)},
		{"AlphaAboveOne", DefaultOptions().WithMixThresholds(0.85, 1.5)},
		{"TargetBackgroundOne", DefaultOptions().WithStretch(-2.8, 1)},
		{"NegativeWorkers", DefaultOptions().WithMaxWorkers(-1)},
	}
	testCases[0].opts.MADScale = 0

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.opts.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestValidate_ReportsFirstNonFiniteOption(t *testing.T) {
	opts := DefaultOptions()
	opts.MADScale = math.NaN()
	opts.MixMaxAlpha = math.Inf(1)
	opts.StretchTargetBackground = math.NaN()

	for i := 0; i < 10; i++ {
		err := opts.Validate()
		if err == nil || err.Error() != "MADScale must be finite" {
			t.Fatalf("Expected MADScale error, got %v", err)
		}
	}
}
