// Package stats provides residual diagnostics and decomposition helpers
// shared by the forecasting models.
//
// # Autocorrelation
//
//	acf := stats.ACF(residuals, 12)
//	lags := stats.SignificantLags(acf, stats.ConfidenceBound(len(residuals)))
//
// # Residual Diagnostics
//
// The Ljung-Box test checks whether model residuals still carry
// autocorrelation (H0: residuals are white noise):
//
//	lb := stats.LjungBox(residuals, 10, p)
//	if lb.Significant(0.05) {
//	    // the model leaves structure in the residuals
//	}
//
// # Stationarity
//
// The KPSS test (H0: stationary around a level, or a linear trend) drives
// the choice of differencing order:
//
//	r := stats.KPSS(values, false, 0)
//	if !r.Stationary(0.05) {
//	    // difference and test again
//	}
//
// # Decomposition
//
// Classical additive decomposition with a centred moving-average trend:
//
//	d := stats.Decompose(values, 12)
//	// d.Trend, d.Seasonal, d.Residual, d.Pattern (one offset per phase)
package stats
