package arima

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/timeseries"
)

// randomWalkAR1 returns a price series whose first differences follow an
// AR(1) process with coefficient phi.
func randomWalkAR1(n int, phi float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	values[0] = 1500
	diff := 0.0
	for i := 1; i < n; i++ {
		diff = phi*diff + rng.NormFloat64()
		values[i] = values[i-1] + diff
	}
	return values
}

func TestNew(t *testing.T) {
	model := New(2, 1)

	assert.Equal(t, 2, model.Order.P)
	assert.Equal(t, 1, model.Order.D)
	assert.Equal(t, "(2,1,0)", model.Order.String())
	assert.Equal(t, 4, model.Order.MinObservations())
	assert.Equal(t, Order{P: 5, D: 1}, DefaultOrder())
}

func TestConstantSeries(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 1900.0
	}

	fc, err := NewForecaster(DefaultOrder()).FitAndForecast(timeseries.New(values), 12)
	require.NoError(t, err)
	require.Equal(t, 12, fc.Len())
	for _, v := range fc.Values {
		assert.Equal(t, 1900.0, v)
	}
}

func TestLinearTrendContinues(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 1000 + 10*float64(i)
	}

	model := New(5, 1)
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(6)
	require.NoError(t, err)
	for h, v := range forecasts {
		assert.InDelta(t, 1000+10*float64(40+h), v, 1e-6)
	}
}

func TestFitAR1Coefficient(t *testing.T) {
	phi := 0.6
	series := timeseries.New(randomWalkAR1(600, phi, 42))

	model := New(1, 1)
	require.NoError(t, model.Fit(series))

	require.Len(t, model.ARCoeffs, 1)
	assert.InDelta(t, phi, model.ARCoeffs[0], 0.1)
	assert.InDelta(t, 1.0, model.Variance, 0.25)

	summary := model.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 600, summary.NObs)
	require.NotNil(t, summary.LjungBox)
	assert.GreaterOrEqual(t, summary.LjungBox.PValue, 0.0)
	assert.LessOrEqual(t, summary.LjungBox.PValue, 1.0)
	assert.False(t, math.IsInf(summary.AIC, 0))
	assert.Less(t, summary.AIC, summary.AICc)
}

func TestSecondOrderDifferencing(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		x := float64(i)
		values[i] = 2*x*x + 3*x + 7
	}

	model := New(1, 2)
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(3)
	require.NoError(t, err)
	for h, v := range forecasts {
		x := float64(30 + h)
		assert.InDelta(t, 2*x*x+3*x+7, v, 1e-6)
	}
}

func TestStationaryRevertsToMean(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 60)
	for i := range values {
		values[i] = 1900 + 5*rng.NormFloat64()
	}
	series := timeseries.New(values)

	model := New(1, 0)
	require.NoError(t, model.Fit(series))
	assert.InDelta(t, series.Mean(), model.Mean, 1e-9)
	assert.Less(t, math.Abs(model.ARCoeffs[0]), 0.6)

	forecasts, err := model.Predict(24)
	require.NoError(t, err)
	assert.InDelta(t, model.Mean, forecasts[23], 0.01)
	for _, v := range forecasts {
		assert.InDelta(t, 1900, v, 10)
	}

	summary := model.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, model.Mean, summary.Mean)
}

func TestMeanCountsAsParameter(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100 + rng.NormFloat64()
	}

	model := New(0, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))

	n := float64(len(model.Residuals()))
	assert.InDelta(t, -2*model.LogLik+2*2, model.AIC, 1e-9)
	assert.InDelta(t, -2*model.LogLik+2*math.Log(n), model.BIC, 1e-9)

	forecasts, err := model.Predict(3)
	require.NoError(t, err)
	for _, v := range forecasts {
		assert.InDelta(t, model.Mean, v, 1e-9)
	}
}

func TestMinimumWindow(t *testing.T) {
	f := NewForecaster(DefaultOrder())
	assert.Equal(t, 7, f.MinObservations())

	_, err := f.FitAndForecast(timeseries.New([]float64{1, 3, 2, 5, 4, 6}), 12)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)

	fc, err := f.FitAndForecast(timeseries.New([]float64{1, 3, 2, 5, 4, 7, 5}), 12)
	require.NoError(t, err)
	assert.Equal(t, 12, fc.Len())
}

func TestCollinearLagsFail(t *testing.T) {
	// The first value equals the mean, so both lag columns are multiples of
	// the same deviation.
	model := New(2, 0)
	err := model.Fit(timeseries.New([]float64{5, 0, 10}))

	assert.ErrorIs(t, err, forecast.ErrNonConvergence)
}

func TestForecasterContract(t *testing.T) {
	series := timeseries.New(randomWalkAR1(120, 0.3, 1))
	f := NewForecaster(DefaultOrder())

	first, err := f.FitAndForecast(series, 12)
	require.NoError(t, err)
	second, err := f.FitAndForecast(series, 12)
	require.NoError(t, err)

	assert.Equal(t, Name, first.Model)
	assert.Equal(t, first.Values, second.Values)
	require.Len(t, first.Dates, 12)
	assert.True(t, first.Dates[0].After(series.Last().Date))
	for i := 1; i < len(first.Dates); i++ {
		assert.True(t, first.Dates[i].After(first.Dates[i-1]))
	}

	empty, err := f.FitAndForecast(series, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = f.FitAndForecast(series, -1)
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)
}

func TestPredictRequiresFit(t *testing.T) {
	model := New(1, 1)

	_, err := model.Predict(5)
	assert.Error(t, err)
	assert.Nil(t, model.Summary())
	assert.Nil(t, model.Residuals())
	assert.Nil(t, model.FittedValues())
}

func TestResidualsAndFittedValues(t *testing.T) {
	series := timeseries.New(randomWalkAR1(100, 0.5, 3))
	model := New(2, 1)
	require.NoError(t, model.Fit(series))

	residuals := model.Residuals()
	fitted := model.FittedValues()
	require.Len(t, residuals, 98)
	require.Len(t, fitted, 98)

	diffs := series.Diff().Values()
	for i := range residuals {
		assert.InDelta(t, diffs[i+1], fitted[i]+residuals[i], 1e-9)
	}

	residuals[0] = 1e9
	assert.NotEqual(t, 1e9, model.Residuals()[0])
}

func TestNegativeOrder(t *testing.T) {
	err := New(-1, 1).Fit(timeseries.New([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)
}
