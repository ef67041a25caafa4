package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/pricecast/timeseries"
)

// Forecast holds point estimates for the dates following a series.
// Dates and Values correspond one-to-one by index.
type Forecast struct {
	Model  string      `json:"model"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the horizon length.
func (f *Forecast) Len() int {
	return len(f.Values)
}

// Forecaster fits a model to a series and forecasts beyond its last date.
// Implementations keep no state between calls.
type Forecaster interface {
	// Name identifies the model in forecasts and errors.
	Name() string
	// MinObservations is the shortest series the model accepts.
	MinObservations() int
	// FitAndForecast performs an independent fit and forecasts horizon steps.
	FitAndForecast(series *timeseries.Series, horizon int) (*Forecast, error)
}

// Validate runs the checks shared by all forecasters: a non-empty series,
// a non-negative horizon, and the model's minimum window.
func Validate(model string, series *timeseries.Series, horizon, minObs int) error {
	if series.Len() == 0 {
		return fmt.Errorf("%s: %w: empty series", model, ErrInvalidInput)
	}
	if horizon < 0 {
		return fmt.Errorf("%s: %w: negative horizon %d", model, ErrInvalidInput, horizon)
	}
	if series.Len() < minObs {
		return &InsufficientDataError{Model: model, Need: minObs, Have: series.Len()}
	}
	return nil
}

// HorizonDates returns the horizon dates after the last observation,
// stepped at the series frequency. Month-based frequencies always produce
// month ends: a series dated on the first of each month forecasts from the
// end of its last month, so an observation on 2024-03-01 is followed by
// 2024-04-30.
func HorizonDates(series *timeseries.Series, horizon int) []time.Time {
	freq := series.Frequency()
	last := freq.Anchor(series.Last().Date)
	dates := make([]time.Time, horizon)
	for h := range dates {
		dates[h] = freq.Step(last, h+1)
	}
	return dates
}

// New assembles a forecast from point estimates. A NaN or infinite
// estimate is reported as non-convergence.
func New(model string, series *timeseries.Series, values []float64) (*Forecast, error) {
	for h, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, NonConvergence(model, fmt.Sprintf("non-finite estimate at step %d", h+1), nil)
		}
	}
	out := make([]float64, len(values))
	copy(out, values)
	return &Forecast{
		Model:  model,
		Dates:  HorizonDates(series, len(values)),
		Values: out,
	}, nil
}
