package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/pricecast/config"
	"github.com/sartorproj/pricecast/engine"
	"github.com/sartorproj/pricecast/logging"
	"github.com/sartorproj/pricecast/seasonal"
	"github.com/sartorproj/pricecast/stats"
	"github.com/sartorproj/pricecast/timeseries"
)

// app is the state shared by all subcommands once the root has loaded
// its configuration.
type app struct {
	out    io.Writer
	cfg    *config.Config
	logger *logrus.Logger
	engine *engine.Engine

	// Global flags
	configFile string
	logLevel   string
	dataFile   string
	frequency  string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "pricecast",
		Short: "Forecast commodity price series",
		Long: `pricecast fits ARIMA, Holt-Winters or Prophet-style models to a
price series loaded from CSV and prints forecasts and seasonal summaries as JSON.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&a.dataFile, "file", "f", "", "Price CSV file (overrides data.file)")
	rootCmd.PersistentFlags().StringVar(&a.frequency, "frequency", "", "Sampling frequency (daily, weekly, monthly, quarterly, yearly, auto)")

	rootCmd.AddCommand(a.forecastCmd())
	rootCmd.AddCommand(a.seasonalCmd())
	rootCmd.AddCommand(a.backtestCmd())
	rootCmd.AddCommand(a.analyzeCmd())
	rootCmd.AddCommand(a.modelsCmd())
	rootCmd.SetOut(out)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.frequency != "" {
		cfg.Engine.Frequency = a.frequency
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.dataFile != "" {
		cfg.Data.File = a.dataFile
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	a.engine = engine.New(cfg.EngineConfig(), engine.WithLogger(a.logger))
	return nil
}

func (a *app) loadSeries() (*timeseries.Series, error) {
	if a.cfg.Data.File == "" {
		return nil, errors.New("no price file: pass --file or set data.file")
	}
	series, err := timeseries.LoadCSV(a.cfg.Data.File, a.cfg.CSVOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}
	a.logger.WithFields(logrus.Fields{
		"file":         a.cfg.Data.File,
		"observations": series.Len(),
		"frequency":    series.Frequency().String(),
	}).Debug("series loaded")
	return series, nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// forecastCmd runs one model over the loaded series
func (a *app) forecastCmd() *cobra.Command {
	var (
		model   string
		horizon int
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the price series with one model",
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := a.loadSeries()
			if err != nil {
				return err
			}
			fc, err := a.engine.Forecast(series, engine.Request{Model: model, Horizon: horizon})
			if err != nil {
				return err
			}
			return a.print(fc)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model name (default from engine.default_model)")
	cmd.Flags().IntVarP(&horizon, "horizon", "n", 0, "Forecast horizon (default from engine.horizon)")
	return cmd
}

// seasonalCmd summarises the series by calendar bucket
func (a *app) seasonalCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "Summarise price distribution by month or quarter",
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := a.loadSeries()
			if err != nil {
				return err
			}
			switch seasonal.Bucketing(by) {
			case seasonal.Month:
				return a.print(seasonal.ByMonth(series))
			case seasonal.Quarter:
				return a.print(seasonal.ByQuarter(series))
			default:
				return fmt.Errorf("--by must be %q or %q, got %q", seasonal.Month, seasonal.Quarter, by)
			}
		},
	}

	cmd.Flags().StringVar(&by, "by", string(seasonal.Month), "Bucketing: month or quarter")
	return cmd
}

// backtestCmd holds out the tail of the series and scores the forecast
func (a *app) backtestCmd() *cobra.Command {
	var (
		model   string
		holdout int
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Score models on the last observations of the series",
		Long: `Fits on all but the last --holdout observations and reports RMSE, MAE
and MAPE against the held-out values. Without --model every model is scored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := a.loadSeries()
			if err != nil {
				return err
			}
			if model == "" {
				results, err := a.engine.BacktestAll(series, holdout)
				if err != nil {
					return err
				}
				return a.print(results)
			}
			result, err := a.engine.Backtest(model, series, holdout)
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model name (default: all models)")
	cmd.Flags().IntVar(&holdout, "holdout", 12, "Number of trailing observations to hold out")
	return cmd
}

type seriesReport struct {
	Name           string                `json:"name,omitempty"`
	Observations   int                   `json:"observations"`
	Start          string                `json:"start"`
	End            string                `json:"end"`
	Frequency      string                `json:"frequency"`
	Mean           float64               `json:"mean"`
	Std            float64               `json:"std"`
	Min            float64               `json:"min"`
	Median         float64               `json:"median"`
	Max            float64               `json:"max"`
	ACF            []float64             `json:"acf"`
	SignificantACF []int                 `json:"significant_acf_lags"`
	LjungBox       *stats.LjungBoxResult `json:"ljung_box,omitempty"`
	Seasonal       []float64             `json:"seasonal_pattern,omitempty"`
}

// analyzeCmd reports descriptive statistics and autocorrelation of the
// differenced series
func (a *app) analyzeCmd() *cobra.Command {
	var lags int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Describe the series: summary statistics, autocorrelation, seasonal pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := a.loadSeries()
			if err != nil {
				return err
			}
			return a.print(analyze(series, lags))
		},
	}

	cmd.Flags().IntVar(&lags, "lags", 24, "Autocorrelation lags")
	return cmd
}

func analyze(series *timeseries.Series, lags int) *seriesReport {
	diff := series.Diff().Values()
	acf := stats.ACF(diff, lags)

	report := &seriesReport{
		Name:           series.Name,
		Observations:   series.Len(),
		Start:          series.At(0).Date.Format("2006-01-02"),
		End:            series.Last().Date.Format("2006-01-02"),
		Frequency:      series.Frequency().String(),
		Mean:           series.Mean(),
		Std:            series.Std(),
		Min:            series.Min(),
		Median:         series.Median(),
		Max:            series.Max(),
		ACF:            acf,
		SignificantACF: stats.SignificantLags(acf, stats.ConfidenceBound(len(diff))),
		LjungBox:       stats.LjungBox(diff, min(lags, 10), 0),
	}
	if d := stats.Decompose(series.Values(), series.Frequency().PeriodsPerYear()); d != nil {
		report.Seasonal = d.Pattern
	}
	return report
}

type modelInfo struct {
	Name            string `json:"name"`
	MinObservations int    `json:"min_observations"`
	Default         bool   `json:"default"`
}

// modelsCmd lists the registered models
func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the supported models",
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []modelInfo
			for _, name := range a.engine.Models() {
				f, err := a.engine.Forecaster(name)
				if err != nil {
					return err
				}
				infos = append(infos, modelInfo{
					Name:            name,
					MinObservations: f.MinObservations(),
					Default:         name == a.engine.DefaultModel(),
				})
			}
			return a.print(infos)
		},
	}
}
