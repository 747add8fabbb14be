package dataset

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of a numeric sample, matching the
// usual count/mean/std/min/quartiles/max breakdown.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe computes descriptive statistics for a sample. A nil or empty
// sample yields a zero Summary.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		StdDev: stat.StdDev(sorted, nil),
		Min:    sorted[0],
		Q25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// IQRBounds returns the Tukey fences for a sample: quartiles widened by
// 1.5 times the interquartile range. Values outside [lower, upper] count as
// outliers.
func IQRBounds(values []float64) (lower, upper float64) {
	s := Describe(values)
	iqr := s.Q75 - s.Q25
	return s.Q25 - 1.5*iqr, s.Q75 + 1.5*iqr
}
