package analyzer

import (
	"fmt"
	"math"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
	"github.com/anime-shed/channel-engine/pkg/models"
)

// backgroundLocator implements BackgroundLocator with a margin-inset grid search
type backgroundLocator struct {
	opts EngineOptions
}

// NewBackgroundLocator creates a locator for the given options
func NewBackgroundLocator(opts EngineOptions) BackgroundLocator {
	return &backgroundLocator{opts: opts}
}

// FindBackgroundRegion returns the most background-like region of the plane
// using the default search parameters.
func FindBackgroundRegion(plane models.Plane, regionWidth, regionHeight int) (models.Region, error) {
	result, err := NewBackgroundLocator(DefaultOptions()).Locate(plane, regionWidth, regionHeight)
	if err != nil {
		return models.Region{}, err
	}
	return result.Region, nil
}

// Locate scans candidate top-left corners on a grid inset from the border and
// scores each by median + k*MAD of a subsampled window. The lowest score wins;
// ties keep the first candidate in row-major order.
func (bl *backgroundLocator) Locate(plane models.Plane, regionWidth, regionHeight int) (models.BackgroundResult, error) {
	if !plane.Consistent() {
		return models.BackgroundResult{}, apperrors.NewInvalidInputError(
			fmt.Sprintf("channel plane is inconsistent: %dx%d with %d samples", plane.Width, plane.Height, len(plane.Samples)),
			ErrInvalidInput)
	}
	if regionWidth <= 0 || regionHeight <= 0 {
		return models.BackgroundResult{}, apperrors.NewInvalidInputError(
			fmt.Sprintf("region size must be positive (got %dx%d)", regionWidth, regionHeight),
			ErrInvalidRegionSize)
	}
	if regionWidth > plane.Width || regionHeight > plane.Height {
		return models.BackgroundResult{}, apperrors.NewInvalidInputError(
			fmt.Sprintf("region %dx%d larger than image %dx%d", regionWidth, regionHeight, plane.Width, plane.Height),
			ErrInvalidRegionSize)
	}

	x0, y0, x1, y1, marginApplied := bl.searchBounds(plane.Width, plane.Height, regionWidth, regionHeight)
	step := bl.gridStep(regionWidth, regionHeight)

	best := models.BackgroundResult{
		Region:        models.Region{Left: x0, Top: y0, Width: regionWidth, Height: regionHeight},
		Score:         math.Inf(1),
		MarginApplied: marginApplied,
	}

	capacity := sampleCapacity(regionWidth, regionHeight, bl.opts.BackgroundStride)
	window := make([]float64, 0, capacity)
	finite := make([]float64, 0, capacity)
	for y := y0; y <= y1; y += step {
		for x := x0; x <= x1; x += step {
			best.Candidates++
			candidate := models.Region{Left: x, Top: y, Width: regionWidth, Height: regionHeight}

			window = plane.AppendRegionSamples(window[:0], candidate, bl.opts.BackgroundStride)
			finite = appendFinite(finite[:0], window)
			spread := medianAndMAD(finite)
			if !spread.ok {
				continue
			}
			score := spread.median + bl.opts.BackgroundStructureWeight*spread.mad
			if score < best.Score {
				best.Region = candidate
				best.Score = score
				best.Median = spread.median
				best.MAD = spread.mad
			}
		}
	}

	if math.IsInf(best.Score, 1) {
		return models.BackgroundResult{}, apperrors.NewInvalidInputError(
			"channel plane has no finite samples in any candidate region", ErrInvalidInput)
	}
	return best, nil
}

// searchBounds returns the inclusive range of top-left corners. When the
// margin leaves no room the whole image is searched.
func (bl *backgroundLocator) searchBounds(width, height, rw, rh int) (x0, y0, x1, y1 int, marginApplied bool) {
	mx := int(math.Round(float64(width) * bl.opts.BackgroundMarginFraction))
	my := int(math.Round(float64(height) * bl.opts.BackgroundMarginFraction))

	x0, y0 = mx, my
	x1 = width - mx - rw
	y1 = height - my - rh
	if x1 <= x0 || y1 <= y0 {
		return 0, 0, width - rw, height - rh, false
	}
	return x0, y0, x1, y1, true
}

func (bl *backgroundLocator) gridStep(rw, rh int) int {
	step := rw
	if rh < step {
		step = rh
	}
	if step < bl.opts.BackgroundMinStep {
		step = bl.opts.BackgroundMinStep
	}
	return step
}

func sampleCapacity(rw, rh, stride int) int {
	if stride < 1 {
		stride = 1
	}
	return ((rw + stride - 1) / stride) * ((rh + stride - 1) / stride)
}
