package arima

import (
	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/timeseries"
)

// Forecaster is the autoregressive forecast strategy. Each call fits a
// fresh Model.
type Forecaster struct {
	Order Order
}

var _ forecast.Forecaster = (*Forecaster)(nil)

// NewForecaster returns a forecaster for the given order.
func NewForecaster(order Order) *Forecaster {
	return &Forecaster{Order: order}
}

// Name implements forecast.Forecaster.
func (f *Forecaster) Name() string { return Name }

// MinObservations implements forecast.Forecaster.
func (f *Forecaster) MinObservations() int { return f.Order.MinObservations() }

// FitAndForecast implements forecast.Forecaster.
func (f *Forecaster) FitAndForecast(series *timeseries.Series, horizon int) (*forecast.Forecast, error) {
	if err := forecast.Validate(Name, series, horizon, f.MinObservations()); err != nil {
		return nil, err
	}

	model := New(f.Order.P, f.Order.D)
	if err := model.Fit(series); err != nil {
		return nil, err
	}

	values, err := model.Predict(horizon)
	if err != nil {
		return nil, err
	}
	return forecast.New(Name, series, values)
}
