// Package arima implements the autoregressive price forecaster, ARIMA(p,d,0).
//
// The series is differenced d times and an AR(p) recurrence is fitted to the
// differenced values by least squares. Forecasts iterate the recurrence and
// integrate back to the price scale from the last observed level. With d = 0
// the recurrence runs on deviations from the sample mean, so forecasts of a
// stationary price revert to its mean. With d > 0 there is no drift term.
// The default order is (5,1,0).
//
// # Basic Usage
//
//	model := arima.New(5, 1)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, _ := model.Predict(12)
//
//	summary := model.Summary()
//	fmt.Printf("AIC: %.2f, Ljung-Box p: %.3f\n", summary.AIC, summary.LjungBox.PValue)
//
// As a forecast strategy:
//
//	f := arima.NewForecaster(arima.DefaultOrder())
//	fc, err := f.FitAndForecast(series, 12)
//
// # Degenerate Input
//
// Values before the first differenced observation are taken as zero (as the
// mean when d = 0), so a series needs only p+d+1 observations. A lag matrix that is identically
// zero (for example a constant price) has no autoregressive signal and
// yields zero coefficients, so the forecast repeats the last level. A lag
// matrix that is rank deficient in any other way fails with
// forecast.ErrNonConvergence.
package arima
