package arima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/stats"
	"github.com/sartorproj/pricecast/timeseries"
)

// Name is the model name used in forecasts and errors.
const Name = "ARIMA"

// rankTolerance is the smallest accepted ratio between the smallest and
// largest singular value of the lag matrix.
const rankTolerance = 1e-10

// Order represents the non-seasonal ARIMA order (p, d, 0).
type Order struct {
	P int `json:"p"` // AR order (number of autoregressive terms)
	D int `json:"d"` // Differencing order
}

// DefaultOrder is ARIMA(5,1,0).
func DefaultOrder() Order {
	return Order{P: 5, D: 1}
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,0)", o.P, o.D)
}

// MinObservations is p + d + 1.
func (o Order) MinObservations() int {
	return o.P + o.D + 1
}

// Model is an ARIMA(p,d,0) model fitted by conditional least squares.
type Model struct {
	Order    Order
	ARCoeffs []float64 // AR coefficients (phi) on the differenced series
	Mean     float64   // Sample mean the AR terms revert to; zero when d > 0
	Variance float64   // Residual variance
	AIC      float64
	AICc     float64 // Corrected AIC for small sample sizes
	BIC      float64
	LogLik   float64

	fitted     bool
	nobs       int
	diffData   []float64
	levels     []float64 // last value of the series after 0..d-1 differences
	residuals  []float64
	fittedVals []float64
}

// New creates a new ARIMA(p,d,0) model.
func New(p, d int) *Model {
	return &Model{
		Order:    Order{P: p, D: d},
		ARCoeffs: make([]float64, max(p, 0)),
	}
}

// Fit fits the model to the series.
func (m *Model) Fit(series *timeseries.Series) error {
	if m.Order.P < 0 || m.Order.D < 0 {
		return fmt.Errorf("%s%s: %w: negative order", Name, m.Order, forecast.ErrInvalidInput)
	}
	if err := forecast.Validate(Name, series, 0, m.Order.MinObservations()); err != nil {
		return err
	}

	m.nobs = series.Len()
	m.levels = make([]float64, m.Order.D)
	for k := 0; k < m.Order.D; k++ {
		m.levels[k] = series.DiffN(k).Last().Value
	}
	m.diffData = series.DiffN(m.Order.D).Values()

	if err := m.fitLeastSquares(); err != nil {
		return err
	}

	m.calculateIC()
	m.fitted = true
	return nil
}

// fitLeastSquares regresses each differenced value on its p predecessors,
// with values before the start of the series taken as zero. Without
// differencing the regression runs on deviations from the sample mean, so
// forecasts of a stationary series revert to that mean.
func (m *Model) fitLeastSquares() error {
	p := m.Order.P
	m.ARCoeffs = make([]float64, p)
	m.Mean = 0
	if m.Order.D == 0 {
		m.Mean = stat.Mean(m.diffData, nil)
	}

	w := make([]float64, len(m.diffData))
	for i, v := range m.diffData {
		w[i] = v - m.Mean
	}

	if p == 0 {
		m.fittedVals = make([]float64, len(w))
		m.residuals = make([]float64, len(w))
		for i := range w {
			m.fittedVals[i] = m.Mean
			m.residuals[i] = w[i]
		}
		m.setVariance()
		return nil
	}

	rows := len(w) - 1
	x := mat.NewDense(rows, p, nil)
	y := mat.NewVecDense(rows, nil)
	signal := false
	for r := 0; r < rows; r++ {
		t := r + 1
		y.SetVec(r, w[t])
		for i := 0; i < p && t-i-1 >= 0; i++ {
			v := w[t-i-1]
			x.Set(r, i, v)
			if v != 0 {
				signal = true
			}
		}
	}

	// With every lag identically zero there is no autoregressive signal and
	// the coefficients stay at zero.
	if signal {
		var svd mat.SVD
		if !svd.Factorize(x, mat.SVDNone) {
			return forecast.NonConvergence(Name, "singular value decomposition failed", nil)
		}
		sv := svd.Values(nil)
		if sv[len(sv)-1] <= sv[0]*rankTolerance {
			return forecast.NonConvergence(Name, "lagged differences are collinear", nil)
		}

		var phi mat.VecDense
		if err := phi.SolveVec(x, y); err != nil {
			return forecast.NonConvergence(Name, "least squares", err)
		}
		for i := 0; i < p; i++ {
			c := phi.AtVec(i)
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return forecast.NonConvergence(Name, "non-finite coefficient", nil)
			}
			m.ARCoeffs[i] = c
		}
	}

	m.fittedVals = make([]float64, rows)
	m.residuals = make([]float64, rows)
	for r := 0; r < rows; r++ {
		m.fittedVals[r] = m.recurrence(m.diffData, r+1)
		m.residuals[r] = m.diffData[r+1] - m.fittedVals[r]
	}
	m.setVariance()
	return nil
}

// recurrence evaluates the AR prediction for index t from x[:t]. Lags before
// the start of x sit at the mean.
func (m *Model) recurrence(x []float64, t int) float64 {
	pred := m.Mean
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (x[t-i-1] - m.Mean)
	}
	return pred
}

// params counts the estimated mean and AR terms.
func (m *Model) params() int {
	if m.Order.D == 0 {
		return m.Order.P + 1
	}
	return m.Order.P
}

func (m *Model) setVariance() {
	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}
	count := len(m.residuals)
	switch {
	case count > m.params():
		m.Variance = sse / float64(count-m.params())
	case count > 0:
		m.Variance = sse / float64(count)
	default:
		m.Variance = 0
	}
}

// calculateIC calculates AIC, AICc, and BIC from the Gaussian likelihood.
// A perfect fit has infinite likelihood.
func (m *Model) calculateIC() {
	n := float64(len(m.residuals))
	k := float64(m.params() + 1) // mean and AR terms + innovation variance

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if n == 0 || sse == 0 {
		m.LogLik = math.Inf(1)
	} else {
		sigma2 := sse / n
		m.LogLik = -n / 2 * (math.Log(2*math.Pi*sigma2) + 1)
	}

	m.AIC = -2*m.LogLik + 2*k
	m.BIC = -2*m.LogLik + k*math.Log(n)
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
}

// Predict generates forecasts for the specified number of steps ahead on
// the original scale.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("%s: model must be fitted before prediction", Name)
	}
	if steps < 0 {
		return nil, fmt.Errorf("%s: %w: negative steps %d", Name, forecast.ErrInvalidInput, steps)
	}

	n := len(m.diffData)
	ext := make([]float64, n+steps)
	copy(ext, m.diffData)
	for t := n; t < n+steps; t++ {
		ext[t] = m.recurrence(ext, t)
	}

	forecasts := make([]float64, steps)
	copy(forecasts, ext[n:])
	m.integrate(forecasts)
	return forecasts, nil
}

// integrate undoes differencing in place, one stage at a time, starting
// from the last observed level of each stage.
func (m *Model) integrate(forecasts []float64) {
	for k := m.Order.D - 1; k >= 0; k-- {
		level := m.levels[k]
		for j := range forecasts {
			level += forecasts[j]
			forecasts[j] = level
		}
	}
}

// Residuals returns the in-sample residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns the one-step fitted values on the differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary describes a fitted model.
type Summary struct {
	Order    Order
	ARCoeffs []float64
	Mean     float64
	Variance float64
	AIC      float64
	AICc     float64 // Corrected AIC
	BIC      float64
	LogLik   float64
	NObs     int
	LjungBox *stats.LjungBoxResult // nil for short or constant residuals
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	coeffs := make([]float64, len(m.ARCoeffs))
	copy(coeffs, m.ARCoeffs)

	return &Summary{
		Order:    m.Order,
		ARCoeffs: coeffs,
		Mean:     m.Mean,
		Variance: m.Variance,
		AIC:      m.AIC,
		AICc:     m.AICc,
		BIC:      m.BIC,
		LogLik:   m.LogLik,
		NObs:     m.nobs,
		LjungBox: stats.LjungBox(m.residuals, 10, m.Order.P),
	}
}
