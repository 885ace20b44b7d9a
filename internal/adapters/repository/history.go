package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
)

// HistoryStore is the capped log of accepted uploads.
type HistoryStore interface {
	// Append stores e and returns the entries evicted by the cap, oldest first.
	Append(ctx context.Context, e types.HistoryEntry) ([]types.HistoryEntry, error)
	// List returns every entry, newest first.
	List(ctx context.Context) ([]types.HistoryEntry, error)
	// Latest returns the newest entry or ErrNoDataset when the log is empty.
	Latest(ctx context.Context) (types.HistoryEntry, error)
	// Clear deletes every entry and returns what was deleted.
	Clear(ctx context.Context) ([]types.HistoryEntry, error)
	Close() error
}

var schemaSQL = []string{`
CREATE TABLE IF NOT EXISTS upload_history (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	filename      TEXT NOT NULL,
	original_name TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	upload_time   INTEGER NOT NULL,
	file_size     INTEGER NOT NULL,
	record_count  INTEGER NOT NULL,
	digest        TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_upload_history_time ON upload_history (upload_time DESC, seq DESC)`,
}

const (
	selectColumns = `id, filename, original_name, description, upload_time, file_size, record_count, digest`
	newestFirst   = `ORDER BY upload_time DESC, seq DESC`
)

// SQLiteHistory stores history rows in a SQLite file.
type SQLiteHistory struct {
	db         *sql.DB
	maxRecords int
	log        logger.Logger
}

// OpenSQLiteHistory opens (creating if needed) the history database at path.
func OpenSQLiteHistory(ctx context.Context, path string, log logger.Logger, opts ...Option) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryOpen, err)
	}
	// A single connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %w", ErrHistoryOpen, err)
		}
	}
	if log == nil {
		log = logger.Nop()
	}

	h := &SQLiteHistory{db: db, maxRecords: DefaultMaxHistory, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func scanEntry(s Scanner) (types.HistoryEntry, error) {
	var (
		e     types.HistoryEntry
		nanos int64
	)
	if err := s.Scan(&e.ID, &e.Filename, &e.OriginalName, &e.Description, &nanos, &e.FileSize, &e.RecordCount, &e.Digest); err != nil {
		return types.HistoryEntry{}, err
	}
	e.UploadTime = time.Unix(0, nanos).UTC()
	return e, nil
}

func (h *SQLiteHistory) Append(ctx context.Context, e types.HistoryEntry) ([]types.HistoryEntry, error) {
	evicted, err := WithTx(ctx, h.db, func(tx *sql.Tx) ([]types.HistoryEntry, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO upload_history (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Filename, e.OriginalName, e.Description, e.UploadTime.UnixNano(), e.FileSize, e.RecordCount, e.Digest)
		if err != nil {
			return nil, err
		}

		old, err := QueryMany(ctx, tx,
			`SELECT `+selectColumns+` FROM upload_history `+newestFirst+` LIMIT -1 OFFSET ?`,
			[]any{h.maxRecords}, scanEntry)
		if err != nil {
			return nil, err
		}
		for _, o := range old {
			if _, err := tx.ExecContext(ctx, `DELETE FROM upload_history WHERE id = ?`, o.ID); err != nil {
				return nil, err
			}
		}
		// oldest first
		for i, j := 0, len(old)-1; i < j; i, j = i+1, j-1 {
			old[i], old[j] = old[j], old[i]
		}
		return old, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: append: %w", ErrHistory, err)
	}

	if len(evicted) > 0 {
		h.log.Info(ctx, "history entries evicted", logger.Int("count", len(evicted)), logger.Int("cap", h.maxRecords))
	}
	h.updateGauge(ctx)
	return evicted, nil
}

func (h *SQLiteHistory) List(ctx context.Context) ([]types.HistoryEntry, error) {
	out, err := QueryMany(ctx, h.db, `SELECT `+selectColumns+` FROM upload_history `+newestFirst, nil, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrHistory, err)
	}
	return out, nil
}

func (h *SQLiteHistory) Latest(ctx context.Context) (types.HistoryEntry, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM upload_history `+newestFirst+` LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.HistoryEntry{}, ErrNoDataset
	}
	if err != nil {
		return types.HistoryEntry{}, fmt.Errorf("%w: latest: %w", ErrHistory, err)
	}
	return e, nil
}

func (h *SQLiteHistory) Clear(ctx context.Context) ([]types.HistoryEntry, error) {
	removed, err := WithTx(ctx, h.db, func(tx *sql.Tx) ([]types.HistoryEntry, error) {
		all, err := QueryMany(ctx, tx, `SELECT `+selectColumns+` FROM upload_history `+newestFirst, nil, scanEntry)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM upload_history`); err != nil {
			return nil, err
		}
		return all, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: clear: %w", ErrHistory, err)
	}
	metrics.UpdateHistoryEntries(0)
	return removed, nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func (h *SQLiteHistory) updateGauge(ctx context.Context) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM upload_history`).Scan(&n); err != nil {
		h.log.Warn(ctx, "history count failed", logger.Error(err))
		return
	}
	metrics.UpdateHistoryEntries(n)
}
