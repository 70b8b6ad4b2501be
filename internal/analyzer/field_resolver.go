package analyzer

import "math"

// StatisticField names one statistic and the keys under which providers
// report it, in priority order.
type StatisticField struct {
	Name    string
	Aliases []string
}

var (
	FieldCount             = StatisticField{Name: "count", Aliases: []string{"count", "n"}}
	FieldMean              = StatisticField{Name: "mean", Aliases: []string{"mean"}}
	FieldMedian            = StatisticField{Name: "median", Aliases: []string{"median"}}
	FieldStandardDeviation = StatisticField{Name: "standard_deviation", Aliases: []string{"standardDeviation", "stdDev", "sigma", "standard_deviation"}}
	FieldMAD               = StatisticField{Name: "median_absolute_deviation", Aliases: []string{"MAD", "mad", "median_absolute_deviation"}}
)

// Resolve returns the first finite value among the field's aliases
func (f StatisticField) Resolve(fields map[string]float64) (float64, bool) {
	return ResolveFirstFinite(fields, f.Aliases...)
}

// ResolveOr returns the resolved value or fallback when none is finite
func (f StatisticField) ResolveOr(fields map[string]float64, fallback float64) float64 {
	if v, ok := f.Resolve(fields); ok {
		return v
	}
	return fallback
}

// ResolveFirstFinite tries keys in order and returns the first present,
// finite value. It reports false when no key yields one.
func ResolveFirstFinite(fields map[string]float64, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := fields[key]; ok && isFinite(v) {
			return v, true
		}
	}
	return math.NaN(), false
}
