// Package timeseries provides the price series type shared by all forecasters.
//
// A Series is built once from raw records and is read-only afterwards. Dates
// are normalised to calendar days, sorted ascending, and must be unique.
//
// # Creating a Series
//
// From raw (date, price) records:
//
//	series, err := timeseries.FromRecords([]timeseries.Record{
//	    {Date: "2023-01-31", Value: 1928.4},
//	    {Date: "2023-02-28", Value: 1826.9},
//	})
//
// From a CSV export:
//
//	series, err := timeseries.LoadCSV("gold.csv", nil)
//
// For tests and examples, New dates plain values at consecutive month ends:
//
//	series := timeseries.New([]float64{100, 102, 105, 103})
//
// # Calendar Features
//
//	series.Month(i)   // 1-12
//	series.Quarter(i) // 1-4
//
// # Frequencies
//
// The sampling frequency drives the dates of forecast horizons. It defaults
// to Monthly and can be overridden or inferred. The CSV loader infers it
// when CSVOptions.Frequency is zero:
//
//	weekly := series.WithFrequency(timeseries.Weekly)
//	freq, err := timeseries.InferFrequency(series)
//	next := freq.Step(series.Last().Date, 1)
//
// # CSV Options
//
//	opts := &timeseries.CSVOptions{
//	    DateColumn:  "Date",
//	    ValueColumn: "Price",
//	    HasHeader:   true,
//	}
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
package timeseries
