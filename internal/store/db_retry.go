package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Busy-retry wrappers around the raw database handle. SQLite reports BUSY
// when another writer holds the file lock; a short bounded retry rides out
// the store's own sub-millisecond transactions without masking real stalls.

type rowScanner interface {
	Scan(dest ...any) error
}

type retryRow struct {
	ctx     context.Context
	query   func() *sql.Row
	timeout time.Duration
	text    string
}

func (r retryRow) Scan(dest ...any) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := r.query().Scan(dest...)
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		slog.Debug("sql row busy", "query", r.text, "attempt", attempt+1)
		if attempt >= 1 || r.timeout <= 0 || time.Since(start) >= r.timeout {
			return err
		}
		if r.ctx.Err() != nil {
			return r.ctx.Err()
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	slog.Debug("sql row", "query", query, "args", args)
	return retryRow{
		ctx:     ctx,
		query:   func() *sql.Row { return s.db.QueryRowContext(ctx, query, args...) },
		timeout: s.lockTimeout,
		text:    query,
	}
}

func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			return res, err
		}
		slog.Debug("sql exec busy", "query", query, "attempt", attempt+1)
		if attempt >= 1 || s.lockTimeout <= 0 || time.Since(start) >= s.lockTimeout {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			return rows, err
		}
		slog.Debug("sql query busy", "query", query, "attempt", attempt+1)
		if attempt >= 1 || s.lockTimeout <= 0 || time.Since(start) >= s.lockTimeout {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		time.Sleep(retryDelay(attempt))
	}
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func (s *Store) beginTx(ctx context.Context, name string) (*sql.Tx, time.Time, error) {
	start := time.Now()
	slog.Debug("sql tx begin", "op", name)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("sql tx begin failed", "op", name, "err", err)
		return nil, start, err
	}
	return tx, start, nil
}

func (s *Store) commitTx(tx *sql.Tx, name string, start time.Time) error {
	if tx == nil {
		return sql.ErrTxDone
	}
	err := tx.Commit()
	slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
	return err
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return
	}
	slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds())
}

func isSQLiteBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
