package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"GridOptimizer/internal/model"
)

// PostgresRecorder persists records to Postgres through a pgx pool.
type PostgresRecorder struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// NewPostgresRecorder connects, pings and migrates.
func NewPostgresRecorder(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresRecorder, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	r := &PostgresRecorder{db: db, log: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r.log.Info().Msg("postgres recorder opened")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_configs (
			id                   UUID PRIMARY KEY,
			name                 TEXT NOT NULL,
			symbol               TEXT,
			buy_condition_count  INTEGER,
			buy_threshold        DOUBLE PRECISION,
			sell_condition_count INTEGER,
			sell_threshold       DOUBLE PRECISION,
			expected_return      DOUBLE PRECISION,
			trade_count          INTEGER,
			source               TEXT,
			created_at           TIMESTAMPTZ NOT NULL,
			memo                 TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_symbol_ts ON saved_configs(symbol, created_at)`,
		`CREATE TABLE IF NOT EXISTS grid_runs (
			id          UUID PRIMARY KEY,
			symbol      TEXT,
			task        TEXT,
			source      TEXT,
			rows        INTEGER,
			cols        INTEGER,
			best_return DOUBLE PRECISION,
			min_return  DOUBLE PRECISION,
			elapsed_ms  BIGINT,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) SaveConfig(ctx context.Context, c model.SavedConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()
	_, err := r.db.Exec(ctx, `
		INSERT INTO saved_configs (
			id, name, symbol, buy_condition_count, buy_threshold,
			sell_condition_count, sell_threshold, expected_return, trade_count,
			source, created_at, memo
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			memo = EXCLUDED.memo`,
		c.ID, c.Name, c.Symbol, c.BuyConditionCount, c.BuyThreshold,
		c.SellConditionCount, c.SellThreshold, c.ExpectedReturn, c.TradeCount,
		string(c.Source), c.CreatedAt, c.Memo,
	)
	return err
}

func (r *PostgresRecorder) ListConfigs(ctx context.Context, symbol string, limit int) ([]model.SavedConfig, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()
	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, COALESCE(symbol, ''), buy_condition_count, buy_threshold,
			sell_condition_count, sell_threshold, expected_return, trade_count,
			source, created_at, COALESCE(memo, '')
		FROM saved_configs
		WHERE $1 = '' OR symbol = $1
		ORDER BY created_at DESC
		LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query saved configs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SavedConfig, error) {
		var c model.SavedConfig
		var source string
		err := row.Scan(&c.ID, &c.Name, &c.Symbol, &c.BuyConditionCount, &c.BuyThreshold,
			&c.SellConditionCount, &c.SellThreshold, &c.ExpectedReturn, &c.TradeCount,
			&source, &c.CreatedAt, &c.Memo)
		c.Source = model.Source(source)
		return c, err
	})
}

func (r *PostgresRecorder) RecordRun(ctx context.Context, run model.RunRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()
	_, err := r.db.Exec(ctx, `
		INSERT INTO grid_runs (id, symbol, task, source, rows, cols, best_return, min_return, elapsed_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.Symbol, string(run.Task), string(run.Source), run.Rows, run.Cols,
		run.BestReturn, run.MinReturn, run.ElapsedMs, run.CreatedAt,
	)
	return err
}

func (r *PostgresRecorder) Close() error {
	r.log.Info().Msg("closing postgres recorder")
	r.db.Close()
	return nil
}
