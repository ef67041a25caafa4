// Package engine dispatches forecast requests to the model strategies.
//
// An Engine is built once from a Config and holds no mutable state after
// construction. Every call refits the selected model from scratch, so one
// Engine can serve concurrent callers.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sartorproj/pricecast/arima"
	"github.com/sartorproj/pricecast/autoarima"
	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/holtwinters"
	"github.com/sartorproj/pricecast/logging"
	"github.com/sartorproj/pricecast/prophet"
	"github.com/sartorproj/pricecast/timeseries"
)

// Supported model names.
const (
	ARIMA       = arima.Name
	HoltWinters = holtwinters.Name
	Prophet     = prophet.Name
)

// DefaultHorizon is the horizon used by RunDefault.
const DefaultHorizon = 12

// Config selects the default request and the per-model settings.
type Config struct {
	DefaultModel string
	Horizon      int
	ARIMA        arima.Order
	// AutoARIMA, when set, selects the ARIMA order per call instead of
	// using the fixed ARIMA order.
	AutoARIMA    *autoarima.Config
	HoltWinters  holtwinters.Config
	Prophet      prophet.Config
}

// DefaultConfig returns the stock model settings.
func DefaultConfig() Config {
	return Config{
		DefaultModel: ARIMA,
		Horizon:      DefaultHorizon,
		ARIMA:        arima.DefaultOrder(),
		HoltWinters:  holtwinters.DefaultConfig(),
		Prophet:      prophet.DefaultConfig(),
	}
}

// Engine maps model names to forecasters.
type Engine struct {
	forecasters  map[string]forecast.Forecaster
	names        []string
	defaultModel string
	horizon      int
	logger       logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-run entries.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithForecaster registers an additional forecaster, or replaces the one
// with the same name.
func WithForecaster(f forecast.Forecaster) Option {
	return func(e *Engine) { e.register(f) }
}

// New builds an engine from cfg.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		forecasters:  make(map[string]forecast.Forecaster),
		defaultModel: cfg.DefaultModel,
		horizon:      cfg.Horizon,
		logger:       logging.Discard(),
	}
	if e.defaultModel == "" {
		e.defaultModel = ARIMA
	}
	if e.horizon <= 0 {
		e.horizon = DefaultHorizon
	}

	if cfg.AutoARIMA != nil {
		e.register(autoarima.NewForecaster(*cfg.AutoARIMA))
	} else {
		e.register(arima.NewForecaster(cfg.ARIMA))
	}
	e.register(holtwinters.NewForecaster(cfg.HoltWinters))
	e.register(prophet.NewForecaster(cfg.Prophet))
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Default returns an engine with DefaultConfig.
func Default(opts ...Option) *Engine {
	return New(DefaultConfig(), opts...)
}

func (e *Engine) register(f forecast.Forecaster) {
	if _, ok := e.forecasters[f.Name()]; !ok {
		e.names = append(e.names, f.Name())
	}
	e.forecasters[f.Name()] = f
}

// Models lists the supported model names in registration order.
func (e *Engine) Models() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// DefaultModel is the model used when a request names none.
func (e *Engine) DefaultModel() string {
	return e.defaultModel
}

// Forecaster returns the strategy registered under model.
func (e *Engine) Forecaster(model string) (forecast.Forecaster, error) {
	f, ok := e.forecasters[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", forecast.ErrUnknownModel, model, e.names)
	}
	return f, nil
}

// Run fits model to series and forecasts horizon steps.
func (e *Engine) Run(model string, series *timeseries.Series, horizon int) (*forecast.Forecast, error) {
	f, err := e.Forecaster(model)
	if err != nil {
		e.logger.WithField("model", model).Warn("unknown model requested")
		return nil, err
	}

	start := time.Now()
	fc, err := f.FitAndForecast(series, horizon)
	fields := logrus.Fields{
		"model":        model,
		"observations": series.Len(),
		"horizon":      horizon,
		"duration":     time.Since(start).String(),
	}
	if err != nil {
		e.logger.WithFields(fields).WithError(err).Warn("forecast failed")
		return nil, err
	}
	e.logger.WithFields(fields).Debug("forecast complete")
	return fc, nil
}

// RunDefault runs model with the configured horizon.
func (e *Engine) RunDefault(model string, series *timeseries.Series) (*forecast.Forecast, error) {
	return e.Run(model, series, e.horizon)
}

// Request is a forecast request with optional fields.
type Request struct {
	Model     string               `json:"model,omitempty"`     // default model when empty
	Horizon   int                  `json:"horizon,omitempty"`   // configured horizon when zero
	Frequency timeseries.Frequency `json:"frequency,omitempty"` // series frequency when zero
}

// Forecast runs a request, filling unset fields from the engine defaults.
func (e *Engine) Forecast(series *timeseries.Series, req Request) (*forecast.Forecast, error) {
	model := req.Model
	if model == "" {
		model = e.defaultModel
	}
	horizon := req.Horizon
	if horizon == 0 {
		horizon = e.horizon
	}
	if req.Frequency != 0 && series != nil {
		series = series.WithFrequency(req.Frequency)
	}
	return e.Run(model, series, horizon)
}

// BacktestResult compares a forecast over the last observations with the
// values actually observed.
type BacktestResult struct {
	Model    string             `json:"model"`
	Holdout  int                `json:"holdout"`
	Forecast *forecast.Forecast `json:"forecast,omitempty"`
	Actual   []float64          `json:"actual"`
	Accuracy forecast.Accuracy  `json:"accuracy"`
	Error    string             `json:"error,omitempty"`
}

// Backtest fits model on all but the last holdout observations and measures
// the forecast against them.
func (e *Engine) Backtest(model string, series *timeseries.Series, holdout int) (*BacktestResult, error) {
	if holdout <= 0 {
		return nil, fmt.Errorf("%w: holdout must be positive, got %d", forecast.ErrInvalidInput, holdout)
	}
	n := series.Len()
	if n <= holdout {
		return nil, fmt.Errorf("%w: holdout %d leaves no training data in %d observations",
			forecast.ErrInvalidInput, holdout, n)
	}

	train := series.Slice(0, n-holdout)
	actual := series.Slice(n-holdout, n).Values()

	fc, err := e.Run(model, train, holdout)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", model, err)
	}

	result := &BacktestResult{
		Model:    model,
		Holdout:  holdout,
		Forecast: fc,
		Actual:   actual,
		Accuracy: forecast.Measure(actual, fc.Values),
	}
	e.logger.WithFields(logrus.Fields{
		"model":   model,
		"holdout": holdout,
		"rmse":    result.Accuracy.RMSE,
		"mape":    result.Accuracy.MAPE,
	}).Info("backtest complete")
	return result, nil
}

// BacktestAll backtests every registered model. A model that cannot be fitted
// is reported through its Error field rather than aborting the comparison.
func (e *Engine) BacktestAll(series *timeseries.Series, holdout int) ([]BacktestResult, error) {
	results := make([]BacktestResult, 0, len(e.names))
	for _, model := range e.names {
		r, err := e.Backtest(model, series, holdout)
		switch {
		case err == nil:
			results = append(results, *r)
		case errors.Is(err, forecast.ErrInvalidInput):
			return nil, err
		default:
			results = append(results, BacktestResult{Model: model, Holdout: holdout, Error: err.Error()})
		}
	}
	return results, nil
}
