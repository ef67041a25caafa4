package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"` // interpolated, clamped to [0.01, 0.10]
	Lags      int     `json:"lags"`
	Trend     bool    `json:"trend"`
}

// Stationary reports whether stationarity is not rejected at level alpha.
func (r *KPSSResult) Stationary(alpha float64) bool {
	return r != nil && r.PValue > alpha
}

// KPSS critical values (10%, 5%, 2.5%, 1%) for level and trend stationarity.
var (
	kpssLevelCrit = []float64{0.347, 0.463, 0.574, 0.739}
	kpssTrendCrit = []float64{0.119, 0.146, 0.176, 0.216}
	kpssLevels    = []float64{0.10, 0.05, 0.025, 0.01}
)

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test. The null
// hypothesis is stationarity around a level, or around a linear trend when
// trend is set. nlags <= 0 selects ⌈12·(n/100)^¼⌉ Bartlett lags.
// Returns nil for fewer than 10 values.
func KPSS(x []float64, trend bool, nlags int) *KPSSResult {
	n := len(x)
	if n < 10 {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if trend {
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i)
		}
		alpha, beta := stat.LinearRegression(t, x, nil, false)
		for i, v := range x {
			residuals[i] = v - alpha - beta*t[i]
		}
	} else {
		mean := stat.Mean(x, nil)
		for i, v := range x {
			residuals[i] = v - mean
		}
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov / float64(n)
	}

	result := &KPSSResult{Lags: nlags, Trend: trend}
	if s2 <= 0 {
		// Constant residuals: nothing to reject.
		result.PValue = kpssLevels[0]
		return result
	}

	eta := 0.0
	partial := 0.0
	for _, r := range residuals {
		partial += r
		eta += partial * partial
	}
	result.Statistic = eta / (float64(n) * float64(n) * s2)

	crit := kpssLevelCrit
	if trend {
		crit = kpssTrendCrit
	}
	result.PValue = kpssPValue(result.Statistic, crit)
	return result
}

// kpssPValue interpolates linearly in the critical value table.
func kpssPValue(statistic float64, crit []float64) float64 {
	if statistic <= crit[0] {
		return kpssLevels[0]
	}
	for i := 1; i < len(crit); i++ {
		if statistic <= crit[i] {
			w := (statistic - crit[i-1]) / (crit[i] - crit[i-1])
			return kpssLevels[i-1] + w*(kpssLevels[i]-kpssLevels[i-1])
		}
	}
	return kpssLevels[len(kpssLevels)-1]
}
