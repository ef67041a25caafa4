package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string    // Column name for dates (default: first of ds/date/Date)
	ValueColumn string    // Column name for values (default: Price, falling back to the last column)
	DateFormat  string    // Extra date layout tried before the built-in ones
	HasHeader   bool      // Whether CSV has header row (default: true)
	Delimiter   rune      // Field delimiter (default: ',')
	SkipRows    int       // Number of rows to skip at start
	Frequency   Frequency // Sampling frequency; zero infers it from the dates
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "Price",
		DateFormat:  "2006-01-02",
		HasHeader:   true,
		Delimiter:   ',',
		Frequency:   Monthly,
	}
}

// LoadCSV loads a price series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// LoadCSVFromReader loads a price series from an io.Reader.
// Rows whose value is empty or NA are skipped; absent dates are not
// interpolated.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	dateIdx, valueIdx := 0, 1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, err
		}
		dateIdx, valueIdx = locateColumns(header, opts)
		if dateIdx < 0 {
			return nil, fmt.Errorf("%w: no date column in header %v", ErrInvalidInput, header)
		}
	}

	var records []Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if valueIdx >= len(row) || dateIdx >= len(row) {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrInvalidInput, line, len(row))
		}

		raw := strings.TrimSpace(strings.Trim(row[valueIdx], "\""))
		if raw == "" || raw == "NA" || raw == "NaN" || raw == "null" {
			continue
		}
		val, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidInput, line, err)
		}
		records = append(records, Record{Date: row[dateIdx], Value: val})
	}

	freq := opts.Frequency
	if freq == 0 {
		freq = Monthly
	}
	series, err := FromRecords(records, WithDateLayout(opts.DateFormat), WithSamplingFrequency(freq))
	if err != nil {
		return nil, err
	}
	if opts.Frequency == 0 && series.Len() >= 2 {
		inferred, err := InferFrequency(series)
		if err != nil {
			return nil, err
		}
		series = series.WithFrequency(inferred)
	}
	return series, nil
}

func locateColumns(header []string, opts *CSVOptions) (dateIdx, valueIdx int) {
	dateIdx, valueIdx = -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch {
		case opts.ValueColumn != "" && h == opts.ValueColumn:
			valueIdx = i
		case opts.DateColumn != "" && h == opts.DateColumn:
			dateIdx = i
		case opts.DateColumn == "" && (h == "ds" || h == "date" || h == "Date"):
			if dateIdx == -1 {
				dateIdx = i
			}
		case opts.ValueColumn == "" && (h == "y" || h == "value" || h == "Price"):
			if valueIdx == -1 {
				valueIdx = i
			}
		}
	}
	if valueIdx == -1 {
		valueIdx = len(header) - 1
	}
	return dateIdx, valueIdx
}
