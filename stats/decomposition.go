package stats

import (
	"math"
)

// Decomposition is an additive split of a series into trend, seasonal and
// residual parts. Trend and residual are NaN where the centred moving
// average is undefined (half a period at each end).
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	// Pattern holds one seasonal offset per phase, centred to sum to zero.
	// Phase j corresponds to indices j, j+period, ...
	Pattern []float64
	Period  int
}

// Decompose performs classical additive decomposition, y = T + S + R.
// Returns nil when x holds fewer than two full periods.
func Decompose(x []float64, period int) *Decomposition {
	n := len(x)
	if period < 2 || n < 2*period {
		return nil
	}

	trend := movingAverageTrend(x, period)

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(trend[i]) {
			continue
		}
		pattern[i%period] += x[i] - trend[i]
		counts[i%period]++
	}

	mean := 0.0
	for j := range pattern {
		if counts[j] > 0 {
			pattern[j] /= float64(counts[j])
		}
		mean += pattern[j]
	}
	mean /= float64(period)
	for j := range pattern {
		pattern[j] -= mean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period]
		residual[i] = x[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Pattern:  pattern,
		Period:   period,
	}
}

// movingAverageTrend is the centred moving average of width period
// (2×period for even periods).
func movingAverageTrend(x []float64, period int) []float64 {
	n := len(x)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			// Even period: end points get half weight
			sum += 0.5*x[i-half] + 0.5*x[i+half]
			for j := i - half + 1; j < i+half; j++ {
				sum += x[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += x[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}
