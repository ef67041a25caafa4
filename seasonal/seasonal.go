// Package seasonal summarises the distribution of a price series by
// calendar month or quarter, in the form consumed by box plots.
package seasonal

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/pricecast/timeseries"
)

// Bucketing names the calendar grouping of a Summary.
type Bucketing string

const (
	Month   Bucketing = "month"
	Quarter Bucketing = "quarter"
)

// whiskerFactor is the Tukey fence multiplier applied to the IQR.
const whiskerFactor = 1.5

// BoxStats describes the values falling into one bucket.
type BoxStats struct {
	Count        int       `json:"count"`
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	Mean         float64   `json:"mean"`
	LowerFence   float64   `json:"lower_fence"`
	UpperFence   float64   `json:"upper_fence"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers"`
}

// Summary maps bucket keys to their statistics. Buckets without
// observations are absent.
type Summary struct {
	By      Bucketing         `json:"by"`
	Buckets map[int]*BoxStats `json:"buckets"`
}

// Keys returns the bucket keys in ascending order.
func (s *Summary) Keys() []int {
	keys := make([]int, 0, len(s.Buckets))
	for k := range s.Buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ByMonth groups observations by calendar month (1-12).
func ByMonth(series *timeseries.Series) *Summary {
	return summarise(series, Month, series.Month)
}

// ByQuarter groups observations by calendar quarter (1-4).
func ByQuarter(series *timeseries.Series) *Summary {
	return summarise(series, Quarter, series.Quarter)
}

func summarise(series *timeseries.Series, by Bucketing, key func(int) int) *Summary {
	groups := make(map[int][]float64)
	for i := 0; i < series.Len(); i++ {
		k := key(i)
		groups[k] = append(groups[k], series.At(i).Value)
	}

	s := &Summary{By: by, Buckets: make(map[int]*BoxStats, len(groups))}
	for k, values := range groups {
		s.Buckets[k] = Box(values)
	}
	return s
}

// Box computes box-plot statistics for values. The input is not modified.
// Returns nil for an empty slice.
func Box(values []float64) *BoxStats {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	b := &BoxStats{
		Count:      len(sorted),
		Min:        sorted[0],
		Q1:         q1,
		Median:     Quantile(sorted, 0.5),
		Q3:         q3,
		Max:        sorted[len(sorted)-1],
		Mean:       stat.Mean(sorted, nil),
		LowerFence: q1 - whiskerFactor*iqr,
		UpperFence: q3 + whiskerFactor*iqr,
		Outliers:   []float64{},
	}

	b.LowerWhisker, b.UpperWhisker = b.Max, b.Min
	for _, v := range sorted {
		if v < b.LowerFence || v > b.UpperFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.LowerWhisker = min(b.LowerWhisker, v)
		b.UpperWhisker = max(b.UpperWhisker, v)
	}
	return b
}

// Quantile returns the p-quantile of ascending sorted values by linear
// interpolation between the order statistics at rank (n-1)·p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(h)
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
