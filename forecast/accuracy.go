package forecast

import (
	"math"
)

// Accuracy summarises forecast errors against held-out actuals.
type Accuracy struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	// MAPE is in percent; actuals equal to zero are skipped.
	MAPE float64 `json:"mape"`
	N    int     `json:"n"`
}

// Measure compares predicted values with actual values over their common length.
func Measure(actual, predicted []float64) Accuracy {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return Accuracy{}
	}

	var sse, sae, sape float64
	pct := 0
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		sse += d * d
		sae += math.Abs(d)
		if actual[i] != 0 {
			sape += math.Abs(d) / math.Abs(actual[i]) * 100
			pct++
		}
	}

	acc := Accuracy{
		RMSE: math.Sqrt(sse / float64(n)),
		MAE:  sae / float64(n),
		N:    n,
	}
	if pct > 0 {
		acc.MAPE = sape / float64(pct)
	}
	return acc
}
