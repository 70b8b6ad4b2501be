package analyzer

import (
	"math"
	"sync"

	"github.com/anime-shed/channel-engine/pkg/models"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// statisticsCalculator implements StatisticsCalculator with Gonum moments and
// montanaflynn/stats order statistics
type statisticsCalculator struct {
	opts      EngineOptions
	slicePool sync.Pool
}

// NewStatisticsCalculator creates a statistics calculator for the given options
func NewStatisticsCalculator(opts EngineOptions) StatisticsCalculator {
	return newStatisticsCalculator(opts)
}

func newStatisticsCalculator(opts EngineOptions) *statisticsCalculator {
	return &statisticsCalculator{
		opts: opts,
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 1024)
				return &s
			},
		},
	}
}

var defaultCalculator = newStatisticsCalculator(DefaultOptions())

// ComputeRobustStatistics computes statistics of a buffer with the default weights
func ComputeRobustStatistics(samples []float64) models.RobustStatistics {
	return defaultCalculator.Compute(samples)
}

// Compute returns the robust statistics of samples. Non-finite samples are
// ignored; an empty buffer yields the zero record.
func (sc *statisticsCalculator) Compute(samples []float64) models.RobustStatistics {
	bufPtr := sc.slicePool.Get().(*[]float64)
	finite := appendFinite((*bufPtr)[:0], samples)
	defer func() {
		*bufPtr = finite[:0]
		sc.slicePool.Put(bufPtr)
	}()

	n := len(finite)
	if n == 0 {
		return models.RobustStatistics{}
	}

	mean := stat.Mean(finite, nil)
	stdDev := 0.0
	if n > 1 {
		stdDev = stat.StdDev(finite, nil)
	}

	spread := medianAndMAD(finite)
	return sc.derive(n, mean, spread.median, stdDev, spread.mad)
}

// FromFields rebuilds statistics from provider-reported values, resolving
// each quantity through its known aliases. Missing values read as 0 except
// the MAD, whose absence falls back to the standard deviation.
func (sc *statisticsCalculator) FromFields(fields map[string]float64) models.RobustStatistics {
	mean := FieldMean.ResolveOr(fields, 0)
	median := FieldMedian.ResolveOr(fields, 0)
	stdDev := FieldStandardDeviation.ResolveOr(fields, 0)
	mad, _ := FieldMAD.Resolve(fields)
	count := 0
	if c, ok := FieldCount.Resolve(fields); ok && c > 0 {
		count = int(c)
	}
	return sc.derive(count, mean, median, stdDev, mad)
}

// derive applies the MAD scaling and strength weighting
func (sc *statisticsCalculator) derive(count int, mean, median, stdDev, mad float64) models.RobustStatistics {
	result := models.RobustStatistics{
		Count:             count,
		Mean:              mean,
		Median:            median,
		StandardDeviation: stdDev,
	}

	if isFinite(mad) {
		result.MedianAbsoluteDeviation = mad
		result.MADAvailable = true
		result.ScaledMAD = sc.opts.MADScale * mad
	} else {
		result.ScaledMAD = stdDev
	}

	result.Strength = sc.opts.StrengthMADWeight*result.ScaledMAD + sc.opts.StrengthStdDevWeight*stdDev
	return result
}

// medianAndMAD computes the median and the unscaled median absolute deviation
func medianAndMAD(samples []float64) robustSpread {
	median, err := stats.Median(samples)
	if err != nil {
		return robustSpread{median: math.NaN(), mad: math.NaN()}
	}
	mad, err := stats.MedianAbsoluteDeviationPopulation(samples)
	if err != nil {
		return robustSpread{median: median, mad: math.NaN()}
	}
	return robustSpread{median: median, mad: mad, ok: true}
}

// appendFinite appends the finite values of src to dst
func appendFinite(dst, src []float64) []float64 {
	for _, v := range src {
		if isFinite(v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
