// Package autoarima selects the ARIMA(p,d,0) order for a series.
//
// The differencing order is the smallest d at which a KPSS test no longer
// rejects level stationarity. The AR order is then chosen by exhaustive
// search over 0..MaxP, keeping the fit with the lowest information
// criterion.
//
//	result, err := autoarima.Search(series, autoarima.DefaultConfig())
//	fmt.Println(result.Order) // (2,1,0)
//	forecasts, _ := result.Model.Predict(12)
package autoarima

import (
	"fmt"
	"math"
	"strings"

	"github.com/sartorproj/pricecast/arima"
	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/stats"
	"github.com/sartorproj/pricecast/timeseries"
)

// stationarityLevel is the KPSS significance level used to stop differencing.
const stationarityLevel = 0.05

// Config holds configuration for the order search.
type Config struct {
	MaxP      int    `mapstructure:"max_p"`     // Maximum AR order (default: 5)
	MaxD      int    `mapstructure:"max_d"`     // Maximum differencing order (default: 2)
	Criterion string `mapstructure:"criterion"` // "aic", "aicc" or "bic" (default: "aicc")
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		MaxP:      5,
		MaxD:      2,
		Criterion: "aicc",
	}
}

// Result is the selected model.
type Result struct {
	Model           *arima.Model
	Order           arima.Order
	Criterion       float64
	ModelsEvaluated int
}

// Search picks the differencing order, then the AR order minimising the
// configured criterion.
func Search(series *timeseries.Series, cfg Config) (*Result, error) {
	if err := forecast.Validate(arima.Name, series, 0, 2); err != nil {
		return nil, err
	}
	score, err := criterion(cfg.Criterion)
	if err != nil {
		return nil, err
	}

	n := series.Len()
	d := determineDifferencing(series.Values(), min(max(cfg.MaxD, 0), n-2))

	best := &Result{Criterion: math.Inf(1)}
	var lastErr error
	for p := 0; p <= max(cfg.MaxP, 0); p++ {
		order := arima.Order{P: p, D: d}
		if order.MinObservations() > n {
			break
		}
		model := arima.New(p, d)
		if err := model.Fit(series); err != nil {
			lastErr = err
			continue
		}
		best.ModelsEvaluated++

		c := score(model)
		if best.Model == nil || c < best.Criterion {
			best.Model, best.Order, best.Criterion = model, order, c
		}
	}

	if best.Model == nil {
		if lastErr == nil {
			lastErr = forecast.NonConvergence(arima.Name, "no candidate order could be fitted", nil)
		}
		return nil, lastErr
	}
	return best, nil
}

func criterion(name string) (func(*arima.Model) float64, error) {
	switch strings.ToLower(name) {
	case "", "aicc":
		return func(m *arima.Model) float64 { return m.AICc }, nil
	case "aic":
		return func(m *arima.Model) float64 { return m.AIC }, nil
	case "bic":
		return func(m *arima.Model) float64 { return m.BIC }, nil
	}
	return nil, fmt.Errorf("%w: unknown information criterion %q", forecast.ErrInvalidInput, name)
}

// determineDifferencing returns the smallest d <= maxD whose differenced
// series passes the KPSS level-stationarity test. Series too short for the
// test are left as they are.
func determineDifferencing(x []float64, maxD int) int {
	for d := 0; d < maxD; d++ {
		r := stats.KPSS(x, false, 0)
		if r == nil || r.Stationary(stationarityLevel) {
			return d
		}
		next := make([]float64, len(x)-1)
		for i := range next {
			next[i] = x[i+1] - x[i]
		}
		x = next
	}
	return maxD
}

// Forecaster selects the order afresh on every call and forecasts with the
// selected model. It reports itself as the ARIMA model.
type Forecaster struct {
	Config Config
}

var _ forecast.Forecaster = (*Forecaster)(nil)

// NewForecaster returns a forecaster searching with cfg.
func NewForecaster(cfg Config) *Forecaster {
	return &Forecaster{Config: cfg}
}

// Name implements forecast.Forecaster.
func (f *Forecaster) Name() string { return arima.Name }

// MinObservations implements forecast.Forecaster.
func (f *Forecaster) MinObservations() int { return 2 }

// FitAndForecast implements forecast.Forecaster.
func (f *Forecaster) FitAndForecast(series *timeseries.Series, horizon int) (*forecast.Forecast, error) {
	if err := forecast.Validate(arima.Name, series, horizon, f.MinObservations()); err != nil {
		return nil, err
	}

	result, err := Search(series, f.Config)
	if err != nil {
		return nil, err
	}
	values, err := result.Model.Predict(horizon)
	if err != nil {
		return nil, err
	}
	return forecast.New(arima.Name, series, values)
}
