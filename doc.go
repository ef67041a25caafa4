// Package pricecast forecasts univariate price series.
//
// Pricecast fits one of three structurally different models to a dated price
// series and returns forecasts through a single contract, regardless of the
// model chosen. It also summarises the seasonal distribution of prices for
// box-plot style inspection.
//
// # Features
//
//   - ARIMA(p,d,0) fitted by conditional least squares, with optional
//     automatic order selection
//   - Additive Holt-Winters exponential smoothing with searched coefficients
//   - Prophet-style piecewise-linear trend plus yearly Fourier seasonality
//   - Month and quarter box statistics with Tukey outliers
//   - Backtesting with RMSE, MAE and MAPE
//   - Autocorrelation, Ljung-Box and KPSS diagnostics
//
// # Quick Start
//
// Load a series and forecast twelve months ahead:
//
//	series, err := timeseries.LoadCSV("gold.csv", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng := engine.Default()
//	fc, err := eng.Run(engine.HoltWinters, series, 12)
//
// Summarise prices by calendar month:
//
//	summary := seasonal.ByMonth(series)
//	for _, month := range summary.Keys() {
//	    fmt.Println(month, summary.Buckets[month].Median)
//	}
//
// # Packages
//
//   - timeseries: Series type, frequencies and CSV loading
//   - forecast: Forecast type, Forecaster interface, errors and accuracy
//   - arima: autoregressive model
//   - autoarima: ARIMA order selection
//   - holtwinters: exponential smoothing model
//   - prophet: decomposition model
//   - engine: model dispatch and backtesting
//   - seasonal: calendar bucket statistics
//   - stats: ACF, Ljung-Box, KPSS and classical decomposition
//   - config, logging: ambient configuration and logrus setup
//
// The pricecast command wraps the engine for use from a shell.
package pricecast
