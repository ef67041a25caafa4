// Package holtwinters implements additive Holt-Winters exponential smoothing.
//
// The model keeps a level, a trend and one seasonal offset per phase,
// updated one observation at a time:
//
//	level_t    = α(y_t − s_{t−m}) + (1 − α)(level_{t−1} + trend_{t−1})
//	trend_t    = β(level_t − level_{t−1}) + (1 − β)trend_{t−1}
//	s_t        = γ(y_t − level_t) + (1 − γ)s_{t−m}
//	ŷ_{n+h}    = level_n + h·trend_n + s_{(n+h) mod m}
//
// The smoothing coefficients minimise the in-sample one-step squared error.
// The search is a fixed grid followed by a capped Nelder–Mead refinement,
// so a fit always terminates.
package holtwinters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/stats"
	"github.com/sartorproj/pricecast/timeseries"
)

// Name is the model name used in forecasts and errors.
const Name = "HoltWinters"

// Params are the smoothing coefficients, each in [0,1].
type Params struct {
	Alpha float64 `json:"alpha"` // level
	Beta  float64 `json:"beta"`  // trend
	Gamma float64 `json:"gamma"` // seasonal
}

// Config controls the seasonal period and the coefficient search budget.
type Config struct {
	Period         int `mapstructure:"period"`
	GridSteps      int `mapstructure:"grid_steps"`      // grid points per coefficient
	MaxIterations  int `mapstructure:"max_iterations"`  // Nelder–Mead major iterations
	MaxEvaluations int `mapstructure:"max_evaluations"` // Nelder–Mead objective evaluations
}

// DefaultConfig returns a monthly configuration.
func DefaultConfig() Config {
	return Config{
		Period:         12,
		GridSteps:      10,
		MaxIterations:  200,
		MaxEvaluations: 2000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Period < 2 {
		c.Period = d.Period
	}
	if c.GridSteps < 1 {
		c.GridSteps = d.GridSteps
	}
	if c.MaxIterations < 1 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxEvaluations < 1 {
		c.MaxEvaluations = d.MaxEvaluations
	}
	return c
}

// MinObservations is two full seasonal cycles.
func (c Config) MinObservations() int {
	return 2 * c.withDefaults().Period
}

// Model is a fitted additive Holt-Winters model.
type Model struct {
	Config Config
	Params Params
	// MSE is the mean squared one-step error at Params.
	MSE float64

	// State after the last observation.
	Level    float64
	Trend    float64
	Seasonal []float64 // offset per phase; phase j covers indices j, j+period, ...

	fitted     bool
	n          int
	fittedVals []float64
}

// New creates an unfitted model.
func New(cfg Config) *Model {
	return &Model{Config: cfg.withDefaults()}
}

type state struct {
	level    float64
	trend    float64
	seasonal []float64
}

// initialState uses the first two cycles for level and trend, and the
// classical decomposition pattern for the seasonal offsets. The level is
// placed at the end of the first cycle.
func initialState(y []float64, period int) (state, error) {
	first := stat.Mean(y[:period], nil)
	second := stat.Mean(y[period:2*period], nil)
	trend := (second - first) / float64(period)

	d := stats.Decompose(y, period)
	if d == nil {
		return state{}, fmt.Errorf("seasonal decomposition needs %d observations", 2*period)
	}
	seasonal := make([]float64, period)
	copy(seasonal, d.Pattern)

	return state{
		level:    first + trend*float64(period-1)/2,
		trend:    trend,
		seasonal: seasonal,
	}, nil
}

// smooth runs the recursions from the end of the first cycle and returns
// the final state and the one-step fitted values.
func smooth(y []float64, init state, p Params) (state, []float64) {
	period := len(init.seasonal)
	s := state{level: init.level, trend: init.trend, seasonal: make([]float64, period)}
	copy(s.seasonal, init.seasonal)

	fitted := make([]float64, 0, len(y)-period)
	for t := period; t < len(y); t++ {
		phase := t % period
		season := s.seasonal[phase]
		fitted = append(fitted, s.level+s.trend+season)

		level := p.Alpha*(y[t]-season) + (1-p.Alpha)*(s.level+s.trend)
		s.trend = p.Beta*(level-s.level) + (1-p.Beta)*s.trend
		s.seasonal[phase] = p.Gamma*(y[t]-level) + (1-p.Gamma)*season
		s.level = level
	}
	return s, fitted
}

func meanSquaredError(y []float64, init state, p Params) float64 {
	period := len(init.seasonal)
	_, fitted := smooth(y, init, p)
	sse := 0.0
	for i, f := range fitted {
		e := y[period+i] - f
		sse += e * e
	}
	mse := sse / float64(len(fitted))
	if math.IsNaN(mse) {
		return math.Inf(1)
	}
	return mse
}

// Fit estimates the smoothing coefficients and the final state.
func (m *Model) Fit(series *timeseries.Series) error {
	cfg := m.Config.withDefaults()
	if err := forecast.Validate(Name, series, 0, cfg.MinObservations()); err != nil {
		return err
	}

	y := series.Values()
	init, err := initialState(y, cfg.Period)
	if err != nil {
		return forecast.NonConvergence(Name, "initial state", err)
	}

	params, mse, err := search(y, init, cfg)
	if err != nil {
		return err
	}

	final, fitted := smooth(y, init, params)
	if math.IsNaN(final.level) || math.IsInf(final.level, 0) || math.IsNaN(final.trend) || math.IsInf(final.trend, 0) {
		return forecast.NonConvergence(Name, "non-finite state", nil)
	}

	m.Config = cfg
	m.Params = params
	m.MSE = mse
	m.Level = final.level
	m.Trend = final.trend
	m.Seasonal = final.seasonal
	m.n = len(y)
	m.fittedVals = fitted
	m.fitted = true
	return nil
}

// search evaluates a GridSteps³ lattice in the open unit cube, then refines
// the best point with Nelder–Mead in logit space.
func search(y []float64, init state, cfg Config) (Params, float64, error) {
	best := Params{}
	bestMSE := math.Inf(1)

	steps := cfg.GridSteps
	grid := make([]float64, steps)
	for i := range grid {
		grid[i] = (float64(i) + 0.5) / float64(steps)
	}
	for _, a := range grid {
		for _, b := range grid {
			for _, g := range grid {
				p := Params{Alpha: a, Beta: b, Gamma: g}
				if mse := meanSquaredError(y, init, p); mse < bestMSE {
					best, bestMSE = p, mse
				}
			}
		}
	}
	if math.IsInf(bestMSE, 1) {
		return Params{}, 0, forecast.NonConvergence(Name, "no coefficients with a finite error on the search grid", nil)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return meanSquaredError(y, init, fromLogit(x))
		},
	}
	settings := &optimize.Settings{
		MajorIterations: cfg.MaxIterations,
		FuncEvaluations: cfg.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-10,
			Iterations: 25,
		},
	}
	start := []float64{logit(best.Alpha), logit(best.Beta), logit(best.Gamma)}

	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil {
		return Params{}, 0, forecast.NonConvergence(Name, "coefficient search", err)
	}
	if result.F < bestMSE {
		best, bestMSE = fromLogit(result.X), result.F
	}
	return best, bestMSE, nil
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func fromLogit(x []float64) Params {
	sigmoid := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	return Params{Alpha: sigmoid(x[0]), Beta: sigmoid(x[1]), Gamma: sigmoid(x[2])}
}

// Predict forecasts steps periods past the last observation.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("%s: model must be fitted before prediction", Name)
	}
	if steps < 0 {
		return nil, fmt.Errorf("%s: %w: negative steps %d", Name, forecast.ErrInvalidInput, steps)
	}

	period := len(m.Seasonal)
	lastPhase := (m.n - 1) % period
	forecasts := make([]float64, steps)
	for h := 1; h <= steps; h++ {
		forecasts[h-1] = m.Level + float64(h)*m.Trend + m.Seasonal[(lastPhase+h)%period]
	}
	return forecasts, nil
}

// FittedValues returns one-step fitted values for observations after the
// first seasonal cycle.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	copy(out, m.fittedVals)
	return out
}

// Forecaster is the exponential smoothing forecast strategy.
type Forecaster struct {
	Config Config
}

var _ forecast.Forecaster = (*Forecaster)(nil)

// NewForecaster returns a forecaster using cfg.
func NewForecaster(cfg Config) *Forecaster {
	return &Forecaster{Config: cfg.withDefaults()}
}

// Name implements forecast.Forecaster.
func (f *Forecaster) Name() string { return Name }

// MinObservations implements forecast.Forecaster.
func (f *Forecaster) MinObservations() int { return f.Config.MinObservations() }

// FitAndForecast implements forecast.Forecaster.
func (f *Forecaster) FitAndForecast(series *timeseries.Series, horizon int) (*forecast.Forecast, error) {
	if err := forecast.Validate(Name, series, horizon, f.MinObservations()); err != nil {
		return nil, err
	}

	model := New(f.Config)
	if err := model.Fit(series); err != nil {
		return nil, err
	}
	values, err := model.Predict(horizon)
	if err != nil {
		return nil, err
	}
	return forecast.New(Name, series, values)
}
