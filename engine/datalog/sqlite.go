package datalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hubastard/physdraw/engine/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// DefaultBatch is the number of buffered samples that triggers a flush.
const DefaultBatch = 1024

var ErrClosed = errors.New("datalog: closed")

// SQLite buffers samples and writes them in one transaction per flush. Each
// Open starts a new run; samples of earlier runs stay in the file.
type SQLite struct {
	db    *sql.DB
	run   int64
	batch int
	log   *slog.Logger

	mu      sync.Mutex
	pending []row
	err     error // first failed background flush
	closed  bool
}

type row struct {
	series string
	Sample
}

// OpenSQLite opens or creates the database at path. batch <= 0 uses
// DefaultBatch.
func OpenSQLite(ctx context.Context, path string, batch int) (*SQLite, error) {
	l := log.WithComponent("datalog").With(slog.String("path", path))
	if path == "" {
		return nil, errors.New("datalog: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("datalog: create dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("datalog: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datalog: enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	res, err := db.ExecContext(ctx, `INSERT INTO runs (started_at) VALUES (?)`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datalog: insert run: %w", err)
	}
	run, err := res.LastInsertId()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datalog: run id: %w", err)
	}
	if batch <= 0 {
		batch = DefaultBatch
	}
	l.Info("datalog ready", slog.Int64("run", run))
	return &SQLite{db: db, run: run, batch: batch, log: l}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run    INTEGER NOT NULL REFERENCES runs(id),
			series TEXT    NOT NULL,
			frame  INTEGER NOT NULL,
			value  REAL    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS samples_series ON samples (run, series, frame);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("datalog: create schema: %w", err)
		}
	}
	return nil
}

// Run is the id of the run samples are written under.
func (s *SQLite) Run() int64 { return s.run }

// Record buffers a sample. A full buffer is flushed on the spot; a failure
// there is logged and returned by the next Flush or Close.
func (s *SQLite) Record(series string, frame uint64, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, row{series: series, Sample: Sample{Frame: frame, Value: value}})
	if len(s.pending) < s.batch {
		return
	}
	if err := s.flushLocked(context.Background()); err != nil && s.err == nil {
		s.log.Error("flush failed", slog.Any("err", err))
		s.err = err
	}
}

// Flush writes the buffered samples.
func (s *SQLite) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	err := s.err
	s.err = nil
	return err
}

func (s *SQLite) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("datalog: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run, series, frame, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("datalog: prepare: %w", err)
	}
	defer stmt.Close()
	for _, r := range s.pending {
		if _, err := stmt.ExecContext(ctx, s.run, r.series, int64(r.Frame), r.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("datalog: insert %q: %w", r.series, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datalog: commit: %w", err)
	}
	s.log.Debug("samples written", slog.Int("count", len(s.pending)))
	s.pending = s.pending[:0]
	return nil
}

// Series reads back the samples of name recorded in this run, ordered by
// frame. Buffered samples are not included until flushed.
func (s *SQLite) Series(ctx context.Context, name string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT frame, value FROM samples WHERE run = ? AND series = ? ORDER BY frame, rowid`, s.run, name)
	if err != nil {
		return nil, fmt.Errorf("datalog: query %q: %w", name, err)
	}
	defer rows.Close()
	var out []Sample
	for rows.Next() {
		var frame int64
		var v float64
		if err := rows.Scan(&frame, &v); err != nil {
			return nil, fmt.Errorf("datalog: scan: %w", err)
		}
		out = append(out, Sample{Frame: uint64(frame), Value: v})
	}
	return out, rows.Err()
}

// Close flushes what is buffered and closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.flushLocked(context.Background())
	if err == nil {
		err = s.err
	}
	return errors.Join(err, s.db.Close())
}
