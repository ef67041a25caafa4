package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/pricecast/autoarima"
	"github.com/sartorproj/pricecast/forecast"
	"github.com/sartorproj/pricecast/timeseries"
)

func seasonalSeries(n int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = 1500 + 4*float64(i) + 30*math.Sin(2*math.Pi*float64(i)/12) + 5*math.Cos(float64(i)*1.3)
	}
	return timeseries.New(values)
}

type naive struct{}

func (naive) Name() string         { return "Naive" }
func (naive) MinObservations() int { return 1 }
func (naive) FitAndForecast(s *timeseries.Series, horizon int) (*forecast.Forecast, error) {
	if err := forecast.Validate("Naive", s, horizon, 1); err != nil {
		return nil, err
	}
	values := make([]float64, horizon)
	for i := range values {
		values[i] = s.Last().Value
	}
	return forecast.New("Naive", s, values)
}

func TestModels(t *testing.T) {
	e := Default()
	assert.Equal(t, []string{"ARIMA", "HoltWinters", "Prophet"}, e.Models())
	assert.Equal(t, ARIMA, e.DefaultModel())

	e = Default(WithForecaster(naive{}))
	assert.Equal(t, []string{"ARIMA", "HoltWinters", "Prophet", "Naive"}, e.Models())
}

func TestAutoARIMA(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 200 + 3*float64(i)
	}
	auto := autoarima.DefaultConfig()
	cfg := DefaultConfig()
	cfg.AutoARIMA = &auto
	e := New(cfg)

	assert.Equal(t, []string{"ARIMA", "HoltWinters", "Prophet"}, e.Models())
	f, err := e.Forecaster(ARIMA)
	require.NoError(t, err)
	assert.IsType(t, &autoarima.Forecaster{}, f)

	fc, err := e.Run(ARIMA, timeseries.New(values), 3)
	require.NoError(t, err)
	assert.InDelta(t, 320, fc.Values[0], 1e-6)
}

func TestRunAllModels(t *testing.T) {
	series := seasonalSeries(60)
	e := Default()

	for _, model := range e.Models() {
		t.Run(model, func(t *testing.T) {
			for _, horizon := range []int{1, 6, 12, 24} {
				fc, err := e.Run(model, series, horizon)
				require.NoError(t, err)
				assert.Equal(t, model, fc.Model)
				require.Len(t, fc.Dates, horizon)
				require.Len(t, fc.Values, horizon)

				prev := series.Last().Date
				for _, d := range fc.Dates {
					assert.True(t, d.After(prev))
					prev = d
				}
			}
		})
	}
}

func TestRunIsIdempotent(t *testing.T) {
	series := seasonalSeries(48)
	e := Default()

	for _, model := range e.Models() {
		first, err := e.Run(model, series, 12)
		require.NoError(t, err)
		second, err := e.Run(model, series, 12)
		require.NoError(t, err)
		assert.Equal(t, first.Values, second.Values, model)
	}
}

func TestUnknownModel(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := Default(WithLogger(logger))

	fc, err := e.Run("LSTM", seasonalSeries(30), 12)
	assert.Nil(t, fc)
	require.ErrorIs(t, err, forecast.ErrUnknownModel)
	assert.Contains(t, err.Error(), "LSTM")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "LSTM", hook.LastEntry().Data["model"])
}

func TestErrorsPropagate(t *testing.T) {
	e := Default()

	_, err := e.Run(HoltWinters, seasonalSeries(18), 12)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)

	_, err = e.Run(ARIMA, nil, 12)
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)

	_, err = e.Run(Prophet, seasonalSeries(30), -1)
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)
}

func TestRunLogsFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e := Default(WithLogger(logger))

	_, err := e.Run(ARIMA, seasonalSeries(30), 3)
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "forecast complete", entry.Message)
	assert.Equal(t, ARIMA, entry.Data["model"])
	assert.Equal(t, 30, entry.Data["observations"])
	assert.Equal(t, 3, entry.Data["horizon"])
	assert.Contains(t, entry.Data, "duration")
}

func TestRunDefault(t *testing.T) {
	series := seasonalSeries(40)

	fc, err := Default().RunDefault(Prophet, series)
	require.NoError(t, err)
	assert.Equal(t, DefaultHorizon, fc.Len())

	cfg := DefaultConfig()
	cfg.Horizon = 5
	fc, err = New(cfg).RunDefault(Prophet, series)
	require.NoError(t, err)
	assert.Equal(t, 5, fc.Len())
}

func TestForecastRequest(t *testing.T) {
	series := seasonalSeries(40)
	e := Default()

	fc, err := e.Forecast(series, Request{})
	require.NoError(t, err)
	assert.Equal(t, ARIMA, fc.Model)
	assert.Equal(t, DefaultHorizon, fc.Len())

	fc, err = e.Forecast(series, Request{Model: Prophet, Horizon: 3, Frequency: timeseries.Weekly})
	require.NoError(t, err)
	assert.Equal(t, Prophet, fc.Model)
	require.Equal(t, 3, fc.Len())
	last := series.Last().Date
	for i, d := range fc.Dates {
		assert.Equal(t, last.AddDate(0, 0, 7*(i+1)), d)
	}
	assert.Equal(t, timeseries.Monthly, series.Frequency())
}

func TestHorizonZero(t *testing.T) {
	e := Default()
	for _, model := range e.Models() {
		fc, err := e.Run(model, seasonalSeries(36), 0)
		require.NoError(t, err, model)
		assert.NotNil(t, fc)
		assert.Equal(t, 0, fc.Len())
	}
}

func TestBacktest(t *testing.T) {
	series := seasonalSeries(72)
	e := Default()

	result, err := e.Backtest(HoltWinters, series, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Accuracy.N)
	assert.Len(t, result.Actual, 12)
	assert.Equal(t, series.Slice(60, 72).Values(), result.Actual)
	assert.Equal(t, series.Slice(60, 72).Dates(), result.Forecast.Dates)
	assert.Less(t, result.Accuracy.MAPE, 5.0)
	assert.GreaterOrEqual(t, result.Accuracy.RMSE, result.Accuracy.MAE)
}

func TestBacktestInvalid(t *testing.T) {
	series := seasonalSeries(20)
	e := Default()

	_, err := e.Backtest(ARIMA, series, 0)
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)

	_, err = e.Backtest(ARIMA, series, 20)
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)

	_, err = e.Backtest("Unknown", series, 4)
	assert.ErrorIs(t, err, forecast.ErrUnknownModel)
}

func TestBacktestAll(t *testing.T) {
	series := seasonalSeries(30)

	results, err := Default().BacktestAll(series, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byModel := map[string]BacktestResult{}
	for _, r := range results {
		byModel[r.Model] = r
	}
	assert.Empty(t, byModel[ARIMA].Error)
	assert.Empty(t, byModel[Prophet].Error)
	assert.Contains(t, byModel[HoltWinters].Error, "insufficient data")

	_, err = Default().BacktestAll(series, 0)
	assert.True(t, errors.Is(err, forecast.ErrInvalidInput))
}
