// Package prophet implements an additive decomposition forecaster in the
// style of Facebook Prophet: a piecewise-linear trend plus yearly Fourier
// seasonality, fitted jointly by penalised least squares.
//
// With t scaled to [0,1] over the history and changepoints c_1..c_S,
//
//	y(t) = a + k·t + Σ δ_j·(t − c_j)+ + Σ [b_n sin(2πnD/365.25) + c_n cos(2πnD/365.25)]
//
// where D is days since the Unix epoch. The intercept and base slope are
// unpenalised; changepoint and seasonal coefficients carry a ridge penalty.
//
// Series shorter than one year leave the seasonal terms unidentified. They
// are then penalised heavily, so the output is defined but tracks the trend
// alone.
package prophet

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/timeseries"
)

// Name is the model name used in forecasts and errors.
const Name = "Prophet"

const (
	yearDays = 365.25
	// shortHistoryPenalty scales the seasonal penalty by n when the history
	// covers less than a year.
	shortHistoryPenalty = 1e3
)

// Config controls the trend flexibility and the seasonal resolution.
type Config struct {
	Changepoints       int     `mapstructure:"changepoints"`
	ChangepointRange   float64 `mapstructure:"changepoint_range"` // share of history eligible for changepoints
	FourierOrder       int     `mapstructure:"fourier_order"`
	ChangepointPenalty float64 `mapstructure:"changepoint_penalty"`
	SeasonalityPenalty float64 `mapstructure:"seasonality_penalty"`
}

// DefaultConfig mirrors Prophet's defaults for a monthly series.
func DefaultConfig() Config {
	return Config{
		Changepoints:       10,
		ChangepointRange:   0.8,
		FourierOrder:       2,
		ChangepointPenalty: 10,
		SeasonalityPenalty: 0.01,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Changepoints <= 0 {
		c.Changepoints = d.Changepoints
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		c.ChangepointRange = d.ChangepointRange
	}
	if c.FourierOrder <= 0 {
		c.FourierOrder = d.FourierOrder
	}
	if c.ChangepointPenalty <= 0 {
		c.ChangepointPenalty = d.ChangepointPenalty
	}
	if c.SeasonalityPenalty <= 0 {
		c.SeasonalityPenalty = d.SeasonalityPenalty
	}
	return c
}

// MinObservations is the smallest history with a defined trend.
const MinObservations = 2

// Model is a fitted decomposition model.
type Model struct {
	Config Config

	// Changepoints are the dates where the trend may change slope.
	Changepoints []time.Time
	// Intercept and Slope are on the scaled axes; Deltas are the slope
	// changes at each changepoint.
	Intercept float64
	Slope     float64
	Deltas    []float64
	// Fourier holds sin/cos coefficient pairs per harmonic.
	Fourier []float64

	fitted bool
	start  time.Time
	span   float64 // days between first and last observation
	scale  float64 // max |y|
	cps    []float64
}

// New creates an unfitted model.
func New(cfg Config) *Model {
	return &Model{Config: cfg.withDefaults()}
}

// changepointIndices spreads the changepoints evenly over the first
// ChangepointRange of the history, dropping some for short series.
func changepointIndices(n int, cfg Config) []int {
	hist := int(math.Floor(float64(n) * cfg.ChangepointRange))
	count := cfg.Changepoints
	if count+1 > hist {
		count = hist - 1
	}
	if count <= 0 {
		return nil
	}
	idx := make([]int, count)
	for j := range idx {
		idx[j] = int(math.Round(float64(j+1) * float64(hist-1) / float64(count)))
	}
	return idx
}

func (m *Model) scaledTime(d time.Time) float64 {
	return d.Sub(m.start).Hours() / 24 / m.span
}

func epochDays(d time.Time) float64 {
	return float64(d.Unix()) / 86400
}

// row fills the design row for date d.
func (m *Model) row(d time.Time, dst []float64) {
	t := m.scaledTime(d)
	dst[0] = 1
	dst[1] = t
	col := 2
	for _, c := range m.cps {
		dst[col] = math.Max(t-c, 0)
		col++
	}
	days := epochDays(d)
	for k := 1; k <= m.Config.FourierOrder; k++ {
		arg := 2 * math.Pi * float64(k) * days / yearDays
		dst[col] = math.Sin(arg)
		dst[col+1] = math.Cos(arg)
		col += 2
	}
}

func (m *Model) columns() int {
	return 2 + len(m.cps) + 2*m.Config.FourierOrder
}

// Fit estimates the trend and seasonal coefficients.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := forecast.Validate(Name, series, 0, MinObservations); err != nil {
		return err
	}
	cfg := m.Config.withDefaults()
	m.Config = cfg

	dates := series.Dates()
	y := series.Values()
	n := len(y)

	m.start = dates[0]
	m.span = dates[n-1].Sub(dates[0]).Hours() / 24
	m.scale = math.Max(math.Abs(floats.Max(y)), math.Abs(floats.Min(y)))
	if m.scale == 0 {
		m.scale = 1
	}

	idx := changepointIndices(n, cfg)
	m.cps = make([]float64, len(idx))
	m.Changepoints = make([]time.Time, len(idx))
	for j, i := range idx {
		m.cps[j] = m.scaledTime(dates[i])
		m.Changepoints[j] = dates[i]
	}

	p := m.columns()
	x := mat.NewDense(n, p, nil)
	for i, d := range dates {
		m.row(d, x.RawRowView(i))
	}
	floats.Scale(1/m.scale, y)
	yv := mat.NewVecDense(n, y)

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	seasonalPenalty := cfg.SeasonalityPenalty
	if m.span < yearDays {
		seasonalPenalty = math.Max(seasonalPenalty, shortHistoryPenalty*float64(n))
	}
	for j := 2; j < p; j++ {
		lambda := seasonalPenalty
		if j < 2+len(m.cps) {
			lambda = cfg.ChangepointPenalty
		}
		xtx.SetSym(j, j, xtx.At(j, j)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var chol mat.Cholesky
	if !chol.Factorize(&xtx) {
		return forecast.NonConvergence(Name, "normal equations are not positive definite", nil)
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return forecast.NonConvergence(Name, "penalised least squares", err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = beta.AtVec(j)
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return forecast.NonConvergence(Name, "non-finite coefficient", nil)
		}
	}
	m.Intercept = coef[0]
	m.Slope = coef[1]
	m.Deltas = coef[2 : 2+len(m.cps)]
	m.Fourier = coef[2+len(m.cps):]
	m.fitted = true
	return nil
}

// Trend evaluates the piecewise-linear trend at each date.
func (m *Model) Trend(dates []time.Time) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("%s: model must be fitted before prediction", Name)
	}
	out := make([]float64, len(dates))
	for i, d := range dates {
		t := m.scaledTime(d)
		v := m.Intercept + m.Slope*t
		for j, c := range m.cps {
			v += m.Deltas[j] * math.Max(t-c, 0)
		}
		out[i] = v * m.scale
	}
	return out, nil
}

// Seasonality evaluates the yearly seasonal component at each date.
func (m *Model) Seasonality(dates []time.Time) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("%s: model must be fitted before prediction", Name)
	}
	out := make([]float64, len(dates))
	for i, d := range dates {
		days := epochDays(d)
		v := 0.0
		for k := 1; k <= m.Config.FourierOrder; k++ {
			arg := 2 * math.Pi * float64(k) * days / yearDays
			v += m.Fourier[2*(k-1)]*math.Sin(arg) + m.Fourier[2*(k-1)+1]*math.Cos(arg)
		}
		out[i] = v * m.scale
	}
	return out, nil
}

// Predict returns trend plus seasonality at each date.
func (m *Model) Predict(dates []time.Time) ([]float64, error) {
	trend, err := m.Trend(dates)
	if err != nil {
		return nil, err
	}
	season, err := m.Seasonality(dates)
	if err != nil {
		return nil, err
	}
	floats.Add(trend, season)
	return trend, nil
}

// Forecaster is the decomposition forecast strategy.
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
func (f *Forecaster) MinObservations() int { return MinObservations }

// FitAndForecast implements forecast.Forecaster.
func (f *Forecaster) FitAndForecast(series *timeseries.Series, horizon int) (*forecast.Forecast, error) {
	if err := forecast.Validate(Name, series, horizon, MinObservations); err != nil {
		return nil, err
	}

	model := New(f.Config)
	if err := model.Fit(series); err != nil {
		return nil, err
	}
	values, err := model.Predict(forecast.HorizonDates(series, horizon))
	if err != nil {
		return nil, err
	}
	return forecast.New(Name, series, values)
}
