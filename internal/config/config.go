// Package config loads the optimizer configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"GridOptimizer/internal/grid"
	"GridOptimizer/internal/model"
	"GridOptimizer/internal/search"
)

// Data source kinds.
const (
	SourceREST  = "rest"
	SourceYahoo = "yahoo"
	SourceCSV   = "csv"
	SourceMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`
	Engine struct {
		Workers         int                 `yaml:"workers"`
		Chunks          int                 `yaml:"chunks"`
		InitialCapital  float64             `yaml:"initial_capital"`
		InitialPosition model.Position      `yaml:"initial_position"`
		ThresholdMode   model.ThresholdMode `yaml:"threshold_mode"`
		Decimals        int                 `yaml:"decimals"`
		Fine            bool                `yaml:"fine"`
	} `yaml:"engine"`
	Signal grid.SignalConfig `yaml:"signal"`
	Search struct {
		CountMin        int     `yaml:"count_min"`
		CountMax        int     `yaml:"count_max"`
		MagnitudeMin    float64 `yaml:"magnitude_min"`
		MagnitudeMax    float64 `yaml:"magnitude_max"`
		RefineCount     int     `yaml:"refine_count"`
		RefineThreshold float64 `yaml:"refine_threshold"`
		AutoSave        bool    `yaml:"auto_save"`
		ReuseBaseline   bool    `yaml:"reuse_baseline"`
	} `yaml:"search"`
	DataSource struct {
		Kind           string `yaml:"kind"`
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		Symbol         string `yaml:"symbol"`
		Interval       string `yaml:"interval"`
		Limit          int    `yaml:"limit"`
		CSVPath        string `yaml:"csv_path"`
		LookbackHours  int    `yaml:"lookback_hours"`
		RequestsPerSec int    `yaml:"requests_per_sec"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Schedule struct {
		OptimizeCron string `yaml:"optimize_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Session struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"session"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, loads .env if present, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("DATA_SOURCE_KIND", &c.DataSource.Kind)
	str("DATA_SOURCE_BASE_URL", &c.DataSource.BaseURL)
	str("DATA_SOURCE_API_KEY", &c.DataSource.APIKey)
	str("SYMBOL", &c.DataSource.Symbol)
	str("CSV_PATH", &c.DataSource.CSVPath)
	str("HTTPS_PROXY", &c.Proxy)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	str("POSTGRES_DSN", &c.Database.PostgresDSN)
	str("CRON_OPTIMIZE", &c.Schedule.OptimizeCron)
	str("SESSION_FILE", &c.Session.StateFile)
	integer("WORKERS", &c.Engine.Workers)
	boolean("RUN_ON_START", &c.Schedule.RunOnStart)
	boolean("AUTO_SAVE", &c.Search.AutoSave)
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Engine.InitialCapital == 0 {
		c.Engine.InitialCapital = model.DefaultInitialCapital
	}
	if c.Engine.InitialPosition == "" {
		c.Engine.InitialPosition = model.PositionCash
	}
	if c.Engine.ThresholdMode == "" {
		c.Engine.ThresholdMode = model.ModeRelative
	}
	if c.Engine.Decimals == 0 {
		c.Engine.Decimals = grid.DefaultDecimals
	}

	d := grid.DefaultSignalConfig()
	if c.Signal.Kind == "" {
		c.Signal.Kind = d.Kind
	}
	if c.Signal.TrendWindow == 0 {
		c.Signal.TrendWindow = d.TrendWindow
	}
	if c.Signal.Sensitivity == 0 {
		c.Signal.Sensitivity = d.Sensitivity
	}
	if c.Signal.SignalLength == 0 {
		c.Signal.SignalLength = d.SignalLength
	}
	if !c.Signal.Indicators.Any() {
		c.Signal.Indicators = d.Indicators
	}

	s := search.DefaultConfig()
	if c.Search.CountMin == 0 {
		c.Search.CountMin = s.CountMin
	}
	if c.Search.CountMax == 0 {
		c.Search.CountMax = s.CountMax
	}
	if c.Search.MagnitudeMin == 0 {
		c.Search.MagnitudeMin = s.MagnitudeMin
	}
	if c.Search.MagnitudeMax == 0 {
		c.Search.MagnitudeMax = s.MagnitudeMax
	}
	if c.Search.RefineCount == 0 {
		c.Search.RefineCount = s.RefineCount
	}
	if c.Search.RefineThreshold == 0 {
		c.Search.RefineThreshold = s.RefineThreshold
	}

	if c.DataSource.Kind == "" {
		c.DataSource.Kind = SourceREST
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "BTCUSDT"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1h"
	}
	if c.DataSource.Limit == 0 {
		c.DataSource.Limit = 1000
	}
	if c.DataSource.RequestsPerSec == 0 {
		c.DataSource.RequestsPerSec = 5
	}
	if c.Schedule.OptimizeCron == "" {
		c.Schedule.OptimizeCron = "0 0 */6 * * *"
	}
	if c.Session.StateFile == "" {
		c.Session.StateFile = "data/session.json"
	}
	if c.Database.SQLitePath == "" && c.Database.PostgresDSN == "" {
		c.Database.SQLitePath = "data/grid_optimizer.db"
	}
}

// Validate checks that required fields are set and values are in range.
func (c *Config) Validate() error {
	switch c.DataSource.Kind {
	case SourceREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest source")
		}
	case SourceCSV:
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv source")
		}
	case SourceYahoo, SourceMock:
	default:
		return fmt.Errorf("data_source.kind %q is not one of rest, yahoo, csv, mock", c.DataSource.Kind)
	}
	if c.DataSource.Limit <= 0 {
		return fmt.Errorf("data_source.limit must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if c.Engine.InitialCapital <= 0 {
		return fmt.Errorf("engine.initial_capital must be positive")
	}
	switch c.Engine.InitialPosition {
	case model.PositionCash, model.PositionCoin:
	default:
		return fmt.Errorf("engine.initial_position %q is not one of cash, coin", c.Engine.InitialPosition)
	}
	switch c.Engine.ThresholdMode {
	case model.ModeRelative, model.ModeAbsolute:
	default:
		return fmt.Errorf("engine.threshold_mode %q is not one of relative, absolute", c.Engine.ThresholdMode)
	}
	switch c.Signal.Kind {
	case grid.SignalRTI, grid.SignalComposite:
	default:
		return fmt.Errorf("signal.kind %q is not one of rti, composite", c.Signal.Kind)
	}
	if c.Search.CountMin < grid.MinCount || c.Search.CountMax > grid.MaxCount || c.Search.CountMin > c.Search.CountMax {
		return fmt.Errorf("search count range [%d,%d] must lie within [%d,%d]",
			c.Search.CountMin, c.Search.CountMax, grid.MinCount, grid.MaxCount)
	}
	if c.Search.MagnitudeMin >= c.Search.MagnitudeMax || c.Search.MagnitudeMax > grid.MaxThreshold || c.Search.MagnitudeMin < 0 {
		return fmt.Errorf("search magnitude range [%v,%v] is invalid", c.Search.MagnitudeMin, c.Search.MagnitudeMax)
	}
	return nil
}

// SearchConfig maps the engine and search sections onto the controller's config.
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		CountMin:        c.Search.CountMin,
		CountMax:        c.Search.CountMax,
		MagnitudeMin:    c.Search.MagnitudeMin,
		MagnitudeMax:    c.Search.MagnitudeMax,
		RefineCount:     c.Search.RefineCount,
		RefineThreshold: c.Search.RefineThreshold,
		Decimals:        c.Engine.Decimals,
		Fine:            c.Engine.Fine,
		Chunks:          c.Engine.Chunks,
		AutoSave:        c.Search.AutoSave,
		ReuseBaseline:   c.Search.ReuseBaseline,
		InitialPosition: c.Engine.InitialPosition,
		InitialCapital:  c.Engine.InitialCapital,
		Mode:            c.Engine.ThresholdMode,
	}
}

// LookbackMs returns the collection window in milliseconds; zero keeps everything.
func (c *Config) LookbackMs() int64 {
	return int64(c.DataSource.LookbackHours) * 3_600_000
}
