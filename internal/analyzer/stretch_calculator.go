package analyzer

import (
	"github.com/anime-shed/channel-engine/pkg/models"
)

// stretchCalculator implements StretchCalculator. Shadows are clipped a few
// sigmas below the median and the midtones balance moves the median to the
// target background.
type stretchCalculator struct {
	opts EngineOptions
}

// NewStretchCalculator creates a stretch calculator for the given options
func NewStretchCalculator(opts EngineOptions) StretchCalculator {
	return &stretchCalculator{opts: opts}
}

// MTF is the midtones transfer function with balance m
func MTF(m, x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	case m <= 0:
		return 1
	case m >= 1:
		return 0
	}
	return (m - 1) * x / ((2*m-1)*x - m)
}

// Compute derives stretch parameters. Channels whose median is not finite are
// skipped. A linked stretch applies one set of parameters to all channels.
func (sc *stretchCalculator) Compute(channelStats []models.RobustStatistics, linked bool) models.StretchParameters {
	usable := make([]models.RobustStatistics, 0, len(channelStats))
	for _, s := range channelStats {
		if isFinite(s.Median) {
			usable = append(usable, s)
		}
	}

	params := models.StretchParameters{Linked: linked, Channels: []models.StretchChannel{}}
	if len(usable) == 0 {
		return params
	}

	inverted := 0
	for _, s := range usable {
		if s.Median > 0.5 {
			inverted++
		}
	}
	params.Inverted = inverted == len(usable)

	if linked {
		ch := sc.linked(usable, params.Inverted)
		for range usable {
			params.Channels = append(params.Channels, ch)
		}
		return params
	}

	for _, s := range usable {
		params.Channels = append(params.Channels, sc.single(s))
	}
	return params
}

func (sc *stretchCalculator) linked(usable []models.RobustStatistics, inverted bool) models.StretchChannel {
	n := float64(len(usable))
	sclip := sc.opts.StretchShadowsClipping
	tbg := sc.opts.StretchTargetBackground

	var clip, median float64
	for _, s := range usable {
		sigma := sigmaOf(s)
		median += s.Median
		switch {
		case !inverted && 1+sigma != 1:
			clip += s.Median + sclip*sigma
		case inverted && 1+sigma != 1:
			clip += s.Median - sclip*sigma
		case inverted:
			clip++
		}
	}
	median /= n
	clip = clamp(clip/n, 0, 1)

	if inverted {
		return models.StretchChannel{Shadows: 0, Midtones: MTF(clip-median, tbg), Highlights: clip}
	}
	return models.StretchChannel{Shadows: clip, Midtones: MTF(tbg, median-clip), Highlights: 1}
}

func (sc *stretchCalculator) single(s models.RobustStatistics) models.StretchChannel {
	sigma := sigmaOf(s)
	sclip := sc.opts.StretchShadowsClipping
	tbg := sc.opts.StretchTargetBackground

	if s.Median < 0.5 {
		shadows := 0.0
		if 1+sigma != 1 {
			shadows = clamp(s.Median+sclip*sigma, 0, 1)
		}
		return models.StretchChannel{Shadows: shadows, Midtones: MTF(tbg, s.Median-shadows), Highlights: 1}
	}
	highlights := 1.0
	if 1+sigma != 1 {
		highlights = clamp(s.Median-sclip*sigma, 0, 1)
	}
	return models.StretchChannel{Shadows: 0, Midtones: MTF(highlights-s.Median, tbg), Highlights: highlights}
}

// sigmaOf returns the clipping dispersion, zero when not finite
func sigmaOf(s models.RobustStatistics) float64 {
	if isFinite(s.ScaledMAD) {
		return s.ScaledMAD
	}
	return 0
}
