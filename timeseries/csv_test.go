package timeseries

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVFromReader(t *testing.T) {
	csvData := `Date,Price
2020-03-31,1577.18
2020-01-31,1560.67
2020-02-29,1597.10`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, []float64{1560.67, 1597.10, 1577.18}, series.Values())
	assert.Equal(t, date(2020, time.January, 31), series.At(0).Date)
}

func TestLoadCSVInfersFrequency(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Frequency
	}{
		{"weekly", "Date,Price\n2024-01-05,10\n2024-01-12,11\n2024-01-19,12\n", Weekly},
		{"quarterly", "Date,Price\n2023-03-31,10\n2023-06-30,11\n2023-09-30,12\n", Quarterly},
		{"monthly", "Date,Price\n2024-01-01,10\n2024-02-01,11\n2024-03-01,12\n", Monthly},
		{"single row falls back to monthly", "Date,Price\n2024-01-05,10\n", Monthly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCSVOptions()
			opts.Frequency = 0

			series, err := LoadCSVFromReader(strings.NewReader(tt.data), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, series.Frequency())
		})
	}

	opts := DefaultCSVOptions()
	opts.Frequency = Daily
	series, err := LoadCSVFromReader(strings.NewReader(tests[0].data), opts)
	require.NoError(t, err)
	assert.Equal(t, Daily, series.Frequency())
}

func TestLoadCSVWithNAValues(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-02-01,NA
2020-03-01,102
2020-04-01,NaN
2020-05-01,104`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{100, 102, 104}, series.Values())
}

func TestLoadCSVSelectedColumn(t *testing.T) {
	csvData := `date,Gold,Silver
2020-01-01,1500,18
2020-02-01,1580,17.5
2020-03-01,1600,15`

	opts := DefaultCSVOptions()
	opts.ValueColumn = "Silver"

	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{18, 17.5, 15}, series.Values())
}

func TestLoadCSVQuotedThousands(t *testing.T) {
	csvData := `"Date","Price"
"2020-01-01","1,500.25"
"2020-02-01","1,580.00"`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{1500.25, 1580}, series.Values())
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		csvData string
	}{
		{"bad date", "Date,Price\nyesterday,100\n"},
		{"duplicate date", "Date,Price\n2020-01-01,100\n2020-01-01,101\n"},
		{"bad value", "Date,Price\n2020-01-01,abc\n"},
		{"no rows", "Date,Price\n"},
		{"no date column", "when,Price\n2020-01-01,100\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSVFromReader(strings.NewReader(tt.csvData), nil)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLoadCSVNoHeader(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.HasHeader = false
	opts.Delimiter = ';'

	series, err := LoadCSVFromReader(strings.NewReader("2020-01-01;1\n2020-02-01;2\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, series.Values())
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Price\n2020-01-31,1\n2020-02-29,2\n"), 0o600))

	series, err := LoadCSV(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}

func TestDefaultCSVOptions(t *testing.T) {
	opts := DefaultCSVOptions()

	assert.Equal(t, "Price", opts.ValueColumn)
	assert.Equal(t, "2006-01-02", opts.DateFormat)
	assert.True(t, opts.HasHeader)
	assert.Equal(t, ',', opts.Delimiter)
	assert.Equal(t, Monthly, opts.Frequency)
}
