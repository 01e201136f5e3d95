package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"GridOptimizer/internal/collector"
	"GridOptimizer/internal/config"
	"GridOptimizer/internal/notifier"
	"GridOptimizer/internal/pool"
	"GridOptimizer/internal/recorder"
	"GridOptimizer/internal/scheduler"
	"GridOptimizer/internal/search"
	"GridOptimizer/internal/session"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	once := flag.Bool("once", false, "run one optimization and exit")
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg.Log.Level, cfg.Log.Console)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}
	logger.Info().Str("symbol", cfg.DataSource.Symbol).Msg("grid optimizer starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := newFetcher(cfg)
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Interval, cfg.DataSource.Limit, logger)
	logger.Info().Str("source", fetcher.Name()).Msg("data source ready")

	rec := newRecorder(ctx, cfg, logger)
	defer rec.Close()

	sessions, err := session.NewStore(cfg.Session.StateFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("init session store")
	}

	p := pool.New(cfg.Engine.Workers, logger)
	defer p.Close()

	ctrl := search.NewController(cfg.SearchConfig(), cfg.Signal, p, rec, sessions, logger)

	var tn *notifier.TelegramNotifier
	var sink scheduler.Notifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		sink = tn
	}

	sched := scheduler.NewScheduler(ctx, col, ctrl, sink, rec, sessions, logger)
	sched.Lookback = cfg.LookbackMs()

	if *once {
		if _, err := sched.OptimizeNow(ctx); err != nil {
			logger.Fatal().Err(err).Msg("optimization failed")
		}
		return
	}

	if err := sched.RegisterAll(cfg.Schedule.OptimizeCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		logger.Info().Msg("run_on_start enabled, optimizing now")
		go sched.HandleCommand(ctx, "/optimize")
	}

	logger.Info().Str("cron", cfg.Schedule.OptimizeCron).Msg("grid optimizer is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received, stopping")
	cancel()
}

func newLogger(level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if console {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	ds := cfg.DataSource
	switch ds.Kind {
	case config.SourceYahoo:
		return collector.NewYahooFetcher(cfg.Proxy, ds.RequestsPerSec)
	case config.SourceCSV:
		return &collector.CSVFetcher{Path: ds.CSVPath}
	case config.SourceMock:
		return &collector.MockFetcher{}
	default:
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.RequestsPerSec)
	}
}

// newRecorder prefers Postgres, then SQLite, and falls back to a no-op recorder.
func newRecorder(ctx context.Context, cfg *config.Config, logger zerolog.Logger) recorder.Recorder {
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pr, err := recorder.NewPostgresRecorder(pctx, dsn, logger)
		if err == nil {
			return pr
		}
		logger.Warn().Err(err).Msg("init postgres recorder failed, trying sqlite")
	}
	if path := cfg.Database.SQLitePath; path != "" {
		sr, err := recorder.NewSQLiteRecorder(path, logger)
		if err == nil {
			return sr
		}
		logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
	}
	return recorder.NewNoopRecorder()
}
