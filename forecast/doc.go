// Package forecast defines the contract shared by the forecasting models.
//
// Every model implements Forecaster and returns a *Forecast whose dates are
// contiguous at the series frequency and strictly after the last
// observation. Failures are reported with the error kinds in this package
// and can be tested with errors.Is:
//
//	fc, err := model.FitAndForecast(series, 12)
//	switch {
//	case errors.Is(err, forecast.ErrInsufficientData):
//	case errors.Is(err, forecast.ErrNonConvergence):
//	}
//
// A horizon of zero yields an empty forecast; a negative horizon is
// ErrInvalidInput.
package forecast
