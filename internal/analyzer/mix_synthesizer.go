package analyzer

import (
	"fmt"
	"math"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// mixSynthesizer implements MixSynthesizer. Green is the anchor; weak side
// channels receive a share of it.
type mixSynthesizer struct {
	opts EngineOptions
}

// NewMixSynthesizer creates a mix synthesizer for the given options
func NewMixSynthesizer(opts EngineOptions) MixSynthesizer {
	return &mixSynthesizer{opts: opts}
}

// SynthesizeMixExpression builds the per-role expressions with the default thresholds
func SynthesizeMixExpression(mapping models.ChannelMapping, strengths map[string]float64) models.MixExpressions {
	return NewMixSynthesizer(DefaultOptions()).Synthesize(mapping, strengths)
}

// Synthesize returns the blend expressions for the mapping. If the anchor
// strength is missing, non-finite or not positive, or either side strength is
// missing or non-finite, every role passes its channel through unchanged.
func (ms *mixSynthesizer) Synthesize(mapping models.ChannelMapping, strengths map[string]float64) models.MixExpressions {
	passThrough := models.MixExpressions{
		Red:         mapping.Red,
		Green:       mapping.Green,
		Blue:        mapping.Blue,
		PassThrough: true,
	}

	anchor := strengthOf(strengths, mapping.Green)
	red := strengthOf(strengths, mapping.Red)
	blue := strengthOf(strengths, mapping.Blue)
	if !isFinite(anchor) || anchor <= 0 || !isFinite(red) || !isFinite(blue) {
		return passThrough
	}

	redAlpha := ms.Alpha(red / anchor)
	blueAlpha := ms.Alpha(blue / anchor)
	return models.MixExpressions{
		Red:       ms.expression(mapping.Red, mapping.Green, redAlpha),
		Green:     mapping.Green,
		Blue:      ms.expression(mapping.Blue, mapping.Green, blueAlpha),
		RedAlpha:  redAlpha,
		BlueAlpha: blueAlpha,
	}
}

// Alpha maps a side/anchor strength ratio to the anchor admixture. Ratios at
// or above the trigger get none; below it the share grows linearly to the
// maximum at ratio 0.
func (ms *mixSynthesizer) Alpha(ratio float64) float64 {
	if math.IsNaN(ratio) || ratio >= ms.opts.MixTriggerRatio {
		return 0
	}
	alpha := (ms.opts.MixTriggerRatio - ratio) / ms.opts.MixTriggerRatio * ms.opts.MixMaxAlpha
	return clamp(alpha, 0, ms.opts.MixMaxAlpha)
}

// expression returns the bare channel id when no anchor is mixed in
func (ms *mixSynthesizer) expression(channel, anchor string, alpha float64) string {
	if alpha <= 0 {
		return channel
	}
	return fmt.Sprintf("(%s * %.3f) + (%s * %.3f)", channel, 1-alpha, anchor, alpha)
}

func strengthOf(strengths map[string]float64, id string) float64 {
	if v, ok := strengths[id]; ok {
		return v
	}
	return math.NaN()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
