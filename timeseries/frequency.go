package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frequency is the sampling interval of a series.
type Frequency int

const (
	Daily Frequency = iota + 1
	Weekly
	Monthly
	Quarterly
	Yearly
)

var frequencyNames = map[Frequency]string{
	Daily:     "daily",
	Weekly:    "weekly",
	Monthly:   "monthly",
	Quarterly: "quarterly",
	Yearly:    "yearly",
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// ParseFrequency accepts the lower-case names and the pandas aliases D, W, M, Q, Y.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "d":
		return Daily, nil
	case "weekly", "w":
		return Weekly, nil
	case "", "monthly", "m", "me":
		return Monthly, nil
	case "quarterly", "q", "qe":
		return Quarterly, nil
	case "yearly", "annual", "y", "a", "ye":
		return Yearly, nil
	}
	return 0, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, s)
}

// Step returns the date k periods after t.
//
// Month-based frequencies keep month ends anchored: stepping from the last day
// of a month lands on the last day of the target month. Other days are kept
// and clamped to the length of the target month.
func (f Frequency) Step(t time.Time, k int) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, k)
	case Weekly:
		return t.AddDate(0, 0, 7*k)
	case Quarterly:
		return addMonths(t, 3*k)
	case Yearly:
		return addMonths(t, 12*k)
	default:
		return addMonths(t, k)
	}
}

// Anchor moves t to the end of its month for month-based frequencies and
// returns it unchanged for daily and weekly sampling.
func (f Frequency) Anchor(t time.Time) time.Time {
	switch f {
	case Daily, Weekly:
		return t
	}
	y, m, _ := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, daysIn(y, m), hh, mm, ss, t.Nanosecond(), t.Location())
}

// PeriodsPerYear is the number of samples in one year.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Daily:
		return 365
	case Weekly:
		return 52
	case Quarterly:
		return 4
	case Yearly:
		return 1
	default:
		return 12
	}
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	monthEnd := d == daysIn(y, m)

	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	last := daysIn(first.Year(), first.Month())
	if monthEnd || d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InferFrequency guesses the sampling frequency from the median gap
// between consecutive dates.
func InferFrequency(s *Series) (Frequency, error) {
	if s.Len() < 2 {
		return 0, errors.New("at least two observations are needed to infer frequency")
	}

	gaps := make([]float64, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		gaps[i-1] = s.dates[i].Sub(s.dates[i-1]).Hours() / 24
	}
	sort.Float64s(gaps)
	days := gaps[len(gaps)/2]

	switch {
	case days < 4:
		return Daily, nil
	case days < 15:
		return Weekly, nil
	case days < 60:
		return Monthly, nil
	case days < 200:
		return Quarterly, nil
	default:
		return Yearly, nil
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2006",
	"2006-01",
	"2006",
}

// ParseDate parses s with the optional layout first, then the built-in layouts.
func ParseDate(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
