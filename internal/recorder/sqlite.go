package recorder

import (
	"context"
	"fmt"
	"log"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so `runs` can read while watch mode writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			recorded_at     INTEGER NOT NULL,
			ticker          TEXT NOT NULL,
			label           TEXT,
			score           REAL,
			article_count   INTEGER,
			not_configured  INTEGER,
			sentiment_error TEXT,
			history_points  INTEGER,
			history_error   TEXT,
			period          TEXT,
			price_points    INTEGER,
			price_error     TEXT,
			last_price      REAL,
			chart           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker_ts ON runs(ticker, recorded_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO runs
		(id, recorded_at, ticker, label, score, article_count, not_configured,
		 sentiment_error, history_points, history_error,
		 period, price_points, price_error, last_price, chart)
		VALUES
		(:id, :recorded_at, :ticker, :label, :score, :article_count, :not_configured,
		 :sentiment_error, :history_points, :history_error,
		 :period, :price_points, :price_error, :last_price, :chart)`, run)
	return err
}

// ListRuns returns runs newest first.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := sq.Select("*").From("runs").OrderBy("recorded_at DESC", "rowid DESC").Limit(uint64(limit))
	if f.Ticker != "" {
		q = q.Where(sq.Eq{"ticker": f.Ticker})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"recorded_at": f.Since.Unix()})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var runs []Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
