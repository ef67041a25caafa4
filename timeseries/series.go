package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidInput reports a malformed or empty series.
var ErrInvalidInput = errors.New("invalid input")

// Observation is a single dated value.
type Observation struct {
	Date  time.Time
	Value float64
}

// Record is a raw (date, price) pair as handed over by a loader.
type Record struct {
	Date  string
	Value float64
}

// Series is an ordered, read-only sequence of observations.
// Dates are calendar days in UTC, strictly increasing.
type Series struct {
	Name   string
	dates  []time.Time
	values []float64
	freq   Frequency
}

// Option configures series construction.
type Option func(*buildOptions)

type buildOptions struct {
	name       string
	freq       Frequency
	dateLayout string
}

// WithName sets the series name.
func WithName(name string) Option {
	return func(o *buildOptions) { o.name = name }
}

// WithSamplingFrequency sets the sampling frequency (default Monthly).
func WithSamplingFrequency(f Frequency) Option {
	return func(o *buildOptions) { o.freq = f }
}

// WithDateLayout adds a date layout tried before the built-in ones.
func WithDateLayout(layout string) Option {
	return func(o *buildOptions) { o.dateLayout = layout }
}

// FromRecords parses raw records into a Series.
func FromRecords(records []Record, opts ...Option) (*Series, error) {
	o := applyOptions(opts)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidInput)
	}

	obs := make([]Observation, len(records))
	for i, r := range records {
		d, err := ParseDate(r.Date, o.dateLayout)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidInput, i, err)
		}
		obs[i] = Observation{Date: d, Value: r.Value}
	}
	return build(obs, o)
}

// FromObservations builds a Series from already parsed observations.
// The input slice is not modified.
func FromObservations(obs []Observation, opts ...Option) (*Series, error) {
	o := applyOptions(opts)
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrInvalidInput)
	}
	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return build(cp, o)
}

// New creates a monthly series from values, dated at consecutive month ends
// starting January 2000. It is meant for synthetic data in tests and
// examples; external input goes through FromRecords or FromObservations,
// which return an error instead. New panics on a NaN or infinite value.
func New(values []float64) *Series {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			panic(fmt.Sprintf("timeseries.New: non-finite value at %d", i))
		}
	}
	dates := make([]time.Time, len(values))
	start := time.Date(2000, time.January, 31, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = Monthly.Step(start, i)
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Series{dates: dates, values: v, freq: Monthly}
}

func applyOptions(opts []Option) buildOptions {
	o := buildOptions{freq: Monthly}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func build(obs []Observation, o buildOptions) (*Series, error) {
	for i := range obs {
		if math.IsNaN(obs[i].Value) || math.IsInf(obs[i].Value, 0) {
			return nil, fmt.Errorf("%w: non-finite value at %d", ErrInvalidInput, i)
		}
		obs[i].Date = normalizeDate(obs[i].Date)
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	s := &Series{
		Name:   o.name,
		dates:  make([]time.Time, len(obs)),
		values: make([]float64, len(obs)),
		freq:   o.freq,
	}
	for i, ob := range obs {
		if i > 0 && ob.Date.Equal(obs[i-1].Date) {
			return nil, fmt.Errorf("%w: duplicate date %s", ErrInvalidInput, ob.Date.Format(time.DateOnly))
		}
		s.dates[i] = ob.Date
		s.values[i] = ob.Value
	}
	return s, nil
}

func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Len returns the length of the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// At returns the i-th observation.
func (s *Series) At(i int) Observation {
	return Observation{Date: s.dates[i], Value: s.values[i]}
}

// Values returns a copy of the values in date order.
func (s *Series) Values() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// Dates returns a copy of the dates in ascending order.
func (s *Series) Dates() []time.Time {
	d := make([]time.Time, len(s.dates))
	copy(d, s.dates)
	return d
}

// Last returns the most recent observation.
func (s *Series) Last() Observation {
	return s.At(len(s.values) - 1)
}

// Month returns the calendar month (1-12) of observation i.
func (s *Series) Month(i int) int {
	return int(s.dates[i].Month())
}

// Quarter returns the calendar quarter (1-4) of observation i.
func (s *Series) Quarter(i int) int {
	return (s.Month(i)-1)/3 + 1
}

// Frequency returns the sampling frequency.
func (s *Series) Frequency() Frequency {
	return s.freq
}

// WithFrequency returns a series sharing the same observations with a
// different sampling frequency.
func (s *Series) WithFrequency(f Frequency) *Series {
	return &Series{Name: s.Name, dates: s.dates, values: s.values, freq: f}
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return stat.Mean(s.values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.values) < 2 {
		return 0
	}
	return stat.Variance(s.values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.values)
}

// Median returns the median value of the series.
func (s *Series) Median() float64 {
	if len(s.values) == 0 {
		return math.NaN()
	}
	sorted := s.Values()
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN applies first differencing n times. The result is dated by the
// later observation of each pair.
func (s *Series) DiffN(n int) *Series {
	if n < 0 || len(s.values) <= n {
		return &Series{Name: s.Name, freq: s.freq}
	}

	values := s.Values()
	for k := 0; k < n; k++ {
		for i := len(values) - 1; i > 0; i-- {
			values[i] -= values[i-1]
		}
		values = values[1:]
	}

	dates := make([]time.Time, len(values))
	copy(dates, s.dates[n:])

	return &Series{
		Name:   s.Name,
		dates:  dates,
		values: values,
		freq:   s.freq,
	}
}

// Slice returns observations from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.values) {
		end = len(s.values)
	}
	if start >= end {
		return &Series{Name: s.Name, freq: s.freq}
	}

	values := make([]float64, end-start)
	copy(values, s.values[start:end])

	dates := make([]time.Time, end-start)
	copy(dates, s.dates[start:end])

	return &Series{
		Name:   s.Name,
		dates:  dates,
		values: values,
		freq:   s.freq,
	}
}
