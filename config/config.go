// Package config loads pricecast settings from an optional YAML file and
// PRICECAST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sartorproj/pricecast/arima"
	"github.com/sartorproj/pricecast/autoarima"
	"github.com/sartorproj/pricecast/engine"
	"github.com/sartorproj/pricecast/holtwinters"
	"github.com/sartorproj/pricecast/prophet"
	"github.com/sartorproj/pricecast/timeseries"
)

// EnvPrefix prefixes environment overrides, e.g. PRICECAST_ENGINE_HORIZON.
const EnvPrefix = "PRICECAST"

// AutoFrequency as engine.frequency infers the sampling frequency from the
// dates of the loaded file.
const AutoFrequency = "auto"

// Config is the complete pricecast configuration. Keys mirror the
// mapstructure tags, nested by section.
type Config struct {
	LogLevel    string             `mapstructure:"log_level"`
	LogFormat   string             `mapstructure:"log_format"`
	Engine      EngineConfig       `mapstructure:"engine"`
	ARIMA       ARIMAConfig        `mapstructure:"arima"`
	HoltWinters holtwinters.Config `mapstructure:"holt_winters"`
	Prophet     prophet.Config     `mapstructure:"prophet"`
	Data        DataConfig         `mapstructure:"data"`
}

// EngineConfig selects the default model, horizon and sampling frequency.
type EngineConfig struct {
	DefaultModel string `mapstructure:"default_model"`
	Horizon      int    `mapstructure:"horizon"`
	Frequency    string `mapstructure:"frequency"`
}

// ARIMAConfig holds the ARIMA settings. P, D and Q give the fixed (p, d, q)
// order; only q = 0 is supported. With Auto set, the order is searched up
// to MaxP and MaxD instead and ranked by Criterion (aic, aicc or bic).
type ARIMAConfig struct {
	P         int    `mapstructure:"p"`
	D         int    `mapstructure:"d"`
	Q         int    `mapstructure:"q"`
	Auto      bool   `mapstructure:"auto"`
	MaxP      int    `mapstructure:"max_p"`
	MaxD      int    `mapstructure:"max_d"`
	Criterion string `mapstructure:"criterion"`
}

// DataConfig describes the price file: its path and the columns and date
// layout the CSV loader should use.
type DataConfig struct {
	File        string `mapstructure:"file"`
	DateColumn  string `mapstructure:"date_column"`
	ValueColumn string `mapstructure:"value_column"`
	DateFormat  string `mapstructure:"date_format"`
}

// Load reads path (if non-empty), applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("pricecast")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decode defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("engine.default_model", engine.ARIMA)
	v.SetDefault("engine.horizon", engine.DefaultHorizon)
	v.SetDefault("engine.frequency", "monthly")

	order := arima.DefaultOrder()
	v.SetDefault("arima.p", order.P)
	v.SetDefault("arima.d", order.D)
	v.SetDefault("arima.q", 0)
	auto := autoarima.DefaultConfig()
	v.SetDefault("arima.auto", false)
	v.SetDefault("arima.max_p", auto.MaxP)
	v.SetDefault("arima.max_d", auto.MaxD)
	v.SetDefault("arima.criterion", auto.Criterion)

	hw := holtwinters.DefaultConfig()
	v.SetDefault("holt_winters.period", hw.Period)
	v.SetDefault("holt_winters.grid_steps", hw.GridSteps)
	v.SetDefault("holt_winters.max_iterations", hw.MaxIterations)
	v.SetDefault("holt_winters.max_evaluations", hw.MaxEvaluations)

	pr := prophet.DefaultConfig()
	v.SetDefault("prophet.changepoints", pr.Changepoints)
	v.SetDefault("prophet.changepoint_range", pr.ChangepointRange)
	v.SetDefault("prophet.fourier_order", pr.FourierOrder)
	v.SetDefault("prophet.changepoint_penalty", pr.ChangepointPenalty)
	v.SetDefault("prophet.seasonality_penalty", pr.SeasonalityPenalty)

	csv := timeseries.DefaultCSVOptions()
	v.SetDefault("data.file", "")
	v.SetDefault("data.date_column", csv.DateColumn)
	v.SetDefault("data.value_column", csv.ValueColumn)
	v.SetDefault("data.date_format", csv.DateFormat)
}

// Validate checks values that would otherwise fail deep inside a fit.
func (c *Config) Validate() error {
	if !c.autoFrequency() {
		if _, err := timeseries.ParseFrequency(c.Engine.Frequency); err != nil {
			return fmt.Errorf("engine.frequency: %w", err)
		}
	}
	switch c.Engine.DefaultModel {
	case engine.ARIMA, engine.HoltWinters, engine.Prophet:
	default:
		return fmt.Errorf("engine.default_model: unknown model %q", c.Engine.DefaultModel)
	}
	if c.Engine.Horizon < 0 {
		return fmt.Errorf("engine.horizon must not be negative, got %d", c.Engine.Horizon)
	}
	if c.ARIMA.P < 0 || c.ARIMA.D < 0 {
		return fmt.Errorf("arima order must not be negative, got (%d,%d,%d)", c.ARIMA.P, c.ARIMA.D, c.ARIMA.Q)
	}
	if c.ARIMA.Q != 0 {
		return fmt.Errorf("arima.q: moving-average terms are not supported, got %d", c.ARIMA.Q)
	}
	switch strings.ToLower(c.ARIMA.Criterion) {
	case "aic", "aicc", "bic":
	default:
		return fmt.Errorf("arima.criterion must be aic, aicc or bic, got %q", c.ARIMA.Criterion)
	}
	if c.ARIMA.MaxP < 0 || c.ARIMA.MaxD < 0 {
		return fmt.Errorf("arima search bounds must not be negative, got max_p=%d max_d=%d", c.ARIMA.MaxP, c.ARIMA.MaxD)
	}
	if c.HoltWinters.Period < 2 {
		return fmt.Errorf("holt_winters.period must be at least 2, got %d", c.HoltWinters.Period)
	}
	if r := c.Prophet.ChangepointRange; r <= 0 || r > 1 {
		return fmt.Errorf("prophet.changepoint_range must be in (0,1], got %v", r)
	}
	return nil
}

// Frequency returns the parsed engine frequency, or zero when it is
// AutoFrequency.
func (c *Config) Frequency() timeseries.Frequency {
	if c.autoFrequency() {
		return 0
	}
	f, err := timeseries.ParseFrequency(c.Engine.Frequency)
	if err != nil {
		return timeseries.Monthly
	}
	return f
}

func (c *Config) autoFrequency() bool {
	return strings.EqualFold(strings.TrimSpace(c.Engine.Frequency), AutoFrequency)
}

// EngineConfig converts the loaded settings into an engine configuration.
func (c *Config) EngineConfig() engine.Config {
	ec := engine.Config{
		DefaultModel: c.Engine.DefaultModel,
		Horizon:      c.Engine.Horizon,
		ARIMA:        arima.Order{P: c.ARIMA.P, D: c.ARIMA.D},
		HoltWinters:  c.HoltWinters,
		Prophet:      c.Prophet,
	}
	if c.ARIMA.Auto {
		ec.AutoARIMA = &autoarima.Config{
			MaxP:      c.ARIMA.MaxP,
			MaxD:      c.ARIMA.MaxD,
			Criterion: c.ARIMA.Criterion,
		}
	}
	return ec
}

// CSVOptions converts the data section into loader options.
func (c *Config) CSVOptions() *timeseries.CSVOptions {
	opts := timeseries.DefaultCSVOptions()
	opts.DateColumn = c.Data.DateColumn
	opts.ValueColumn = c.Data.ValueColumn
	opts.DateFormat = c.Data.DateFormat
	opts.Frequency = c.Frequency()
	return opts
}
