package analyzer

import (
	"fmt"
	"math"
)

// EngineOptions provides the tuning constants of the decision engine
type EngineOptions struct {
	// Statistics
	MADScale             float64
	StrengthMADWeight    float64
	StrengthStdDevWeight float64

	// Background search
	BackgroundMarginFraction  float64
	BackgroundMinStep         int
	BackgroundStride          int
	BackgroundStructureWeight float64

	// Channel mix
	MixTriggerRatio float64
	MixMaxAlpha     float64

	// Auto stretch
	StretchShadowsClipping  float64
	StretchTargetBackground float64

	// Performance options
	MaxWorkers int
}

// DefaultOptions returns default engine options
func DefaultOptions() EngineOptions {
	return EngineOptions{
		MADScale:                  1.4826,
		StrengthMADWeight:         0.80,
		StrengthStdDevWeight:      0.20,
		BackgroundMarginFraction:  0.08,
		BackgroundMinStep:         25,
		BackgroundStride:          2,
		BackgroundStructureWeight: 1.5,
		MixTriggerRatio:           0.85,
		MixMaxAlpha:               0.35,
		StretchShadowsClipping:    -2.80,
		StretchTargetBackground:   0.25,
		MaxWorkers:                0, // Use default CPU count
	}
}

// PreciseOptions samples every pixel of each background candidate
func PreciseOptions() EngineOptions {
	opts := DefaultOptions()
	opts.BackgroundStride = 1
	return opts
}

// FastOptions trades background accuracy for fewer samples on large frames
func FastOptions() EngineOptions {
	opts := DefaultOptions()
	opts.BackgroundStride = 4
	opts.BackgroundMinStep = 50
	return opts
}

// WithStrengthWeights sets the scaled-MAD and standard deviation weights
func (opts EngineOptions) WithStrengthWeights(madWeight, stdDevWeight float64) EngineOptions {
	opts.StrengthMADWeight = madWeight
	opts.StrengthStdDevWeight = stdDevWeight
	return opts
}

// WithMixThresholds sets the blend trigger ratio and the maximum admixture
func (opts EngineOptions) WithMixThresholds(trigger, maxAlpha float64) EngineOptions {
	opts.MixTriggerRatio = trigger
	opts.MixMaxAlpha = maxAlpha
	return opts
}

// WithBackgroundSearch sets the margin, grid step floor, subsampling stride and structure weight
func (opts EngineOptions) WithBackgroundSearch(margin float64, minStep, stride int, structureWeight float64) EngineOptions {
	opts.BackgroundMarginFraction = margin
	opts.BackgroundMinStep = minStep
	opts.BackgroundStride = stride
	opts.BackgroundStructureWeight = structureWeight
	return opts
}

// WithStretch sets the shadows clipping (in sigmas) and target background
func (opts EngineOptions) WithStretch(shadowsClipping, targetBackground float64) EngineOptions {
	opts.StretchShadowsClipping = shadowsClipping
	opts.StretchTargetBackground = targetBackground
	return opts
}

// WithMaxWorkers bounds the statistics worker pool; 0 means one per CPU
func (opts EngineOptions) WithMaxWorkers(n int) EngineOptions {
	opts.MaxWorkers = n
	return opts
}

// Validate reports the first option that cannot drive the engine
func (opts EngineOptions) Validate() error {
	finite := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"MADScale", opts.MADScale},
		{"StrengthMADWeight", opts.StrengthMADWeight},
		{"StrengthStdDevWeight", opts.StrengthStdDevWeight},
		{"BackgroundMarginFraction", opts.BackgroundMarginFraction},
		{"BackgroundStructureWeight", opts.BackgroundStructureWeight},
		{"MixTriggerRatio", opts.MixTriggerRatio},
		{"MixMaxAlpha", opts.MixMaxAlpha},
		{"StretchShadowsClipping", opts.StretchShadowsClipping},
		{"StretchTargetBackground", opts.StretchTargetBackground},
	} {
		if err := finite(f.name, f.v); err != nil {
			return err
		}
	}
	switch {
	case opts.MADScale <= 0:
		return fmt.Errorf("MADScale must be > 0 (got %g)", opts.MADScale)
	case opts.StrengthMADWeight < 0 || opts.StrengthStdDevWeight < 0:
		return fmt.Errorf("strength weights must be >= 0 (got %g, %g)", opts.StrengthMADWeight, opts.StrengthStdDevWeight)
	case opts.BackgroundMarginFraction < 0 || opts.BackgroundMarginFraction >= 0.5:
		return fmt.Errorf("BackgroundMarginFraction must be in [0, 0.5) (got %g)", opts.BackgroundMarginFraction)
	case opts.BackgroundMinStep < 1:
		return fmt.Errorf("BackgroundMinStep must be >= 1 (got %d)", opts.BackgroundMinStep)
	case opts.BackgroundStride < 1:
		return fmt.Errorf("BackgroundStride must be >= 1 (got %d)", opts.BackgroundStride)
	case opts.BackgroundStructureWeight < 0:
		return fmt.Errorf("BackgroundStructureWeight must be >= 0 (got %g)", opts.BackgroundStructureWeight)
	case opts.MixTriggerRatio <= 0 || opts.MixTriggerRatio > 1:
		return fmt.Errorf("MixTriggerRatio must be in (0, 1] (got %g)", opts.MixTriggerRatio)
	case opts.MixMaxAlpha < 0 || opts.MixMaxAlpha > 1:
		return fmt.Errorf("MixMaxAlpha must be in [0, 1] (got %g)", opts.MixMaxAlpha)
	case opts.StretchTargetBackground <= 0 || opts.StretchTargetBackground >= 1:
		return fmt.Errorf("StretchTargetBackground must be in (0, 1) (got %g)", opts.StretchTargetBackground)
	case opts.MaxWorkers < 0:
		return fmt.Errorf("MaxWorkers must be >= 0 (got %d)", opts.MaxWorkers)
	}
	return nil
}
