package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"GridOptimizer/internal/model"
)

// SQLiteRecorder persists records to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_configs (
			id                   TEXT PRIMARY KEY,
			name                 TEXT NOT NULL,
			symbol               TEXT,
			buy_condition_count  INTEGER,
			buy_threshold        REAL,
			sell_condition_count INTEGER,
			sell_threshold       REAL,
			expected_return      REAL,
			trade_count          INTEGER,
			source               TEXT,
			created_at           INTEGER NOT NULL,
			memo                 TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_symbol_ts ON saved_configs(symbol, created_at)`,

		`CREATE TABLE IF NOT EXISTS grid_runs (
			id          TEXT PRIMARY KEY,
			symbol      TEXT,
			task        TEXT,
			source      TEXT,
			rows        INTEGER,
			cols        INTEGER,
			best_return REAL,
			min_return  REAL,
			elapsed_ms  INTEGER,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON grid_runs(created_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) SaveConfig(ctx context.Context, c model.SavedConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO saved_configs
		(id, name, symbol, buy_condition_count, buy_threshold, sell_condition_count, sell_threshold,
		 expected_return, trade_count, source, created_at, memo)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Symbol, c.BuyConditionCount, c.BuyThreshold,
		c.SellConditionCount, c.SellThreshold, c.ExpectedReturn, c.TradeCount,
		string(c.Source), c.CreatedAt.UnixMilli(), c.Memo,
	)
	return err
}

func (r *SQLiteRecorder) ListConfigs(ctx context.Context, symbol string, limit int) ([]model.SavedConfig, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, symbol, buy_condition_count, buy_threshold,
		sell_condition_count, sell_threshold, expected_return, trade_count, source, created_at, memo
		FROM saved_configs WHERE (? = '' OR symbol = ?) ORDER BY created_at DESC LIMIT ?`,
		symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query saved configs: %w", err)
	}
	defer rows.Close()

	var out []model.SavedConfig
	for rows.Next() {
		var c model.SavedConfig
		var source string
		var created int64
		if err := rows.Scan(&c.ID, &c.Name, &c.Symbol, &c.BuyConditionCount, &c.BuyThreshold,
			&c.SellConditionCount, &c.SellThreshold, &c.ExpectedReturn, &c.TradeCount,
			&source, &created, &c.Memo); err != nil {
			return nil, fmt.Errorf("scan saved config: %w", err)
		}
		c.Source = model.Source(source)
		c.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run model.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO grid_runs
		(id, symbol, task, source, rows, cols, best_return, min_return, elapsed_ms, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Symbol, string(run.Task), string(run.Source), run.Rows, run.Cols,
		run.BestReturn, run.MinReturn, run.ElapsedMs, run.CreatedAt.UnixMilli(),
	)
	return err
}

// CountRuns returns the number of recorded grid runs.
func (r *SQLiteRecorder) CountRuns(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grid_runs`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
