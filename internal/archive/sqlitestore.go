package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"studioq/internal/queue"
	"studioq/internal/sqlitedb"
)

// SQLiteStore is the alternative archive Repository, kept in its own
// database file so the archive never contends with the active store.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS archive_entries (
    id          TEXT PRIMARY KEY,
    job_type    TEXT NOT NULL,
    status      TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    archived_at TEXT NOT NULL,
    record      TEXT NOT NULL,
    position    INTEGER NOT NULL
);
`

// OpenSQLiteStore initializes or connects to the archive database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", queue.ErrPersistence, err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", queue.ErrPersistence, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Load returns the stored archive in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM archive_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query archive: %v", queue.ErrPersistence, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", queue.ErrPersistence, err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(record), &entry); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", queue.ErrCorruptStore, s.path, err)
		}
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", queue.ErrCorruptStore, s.path, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate archive: %v", queue.ErrPersistence, err)
	}
	return entries, nil
}

// Save replaces the stored archive in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries []Entry) error {
	op := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(ctx, `DELETE FROM archive_entries`); err != nil {
			return err
		}
		for position, entry := range entries {
			record, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO archive_entries (id, job_type, status, created_at, archived_at, record, position)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				entry.ID,
				string(entry.Type),
				string(entry.Status),
				entry.CreatedAt.UTC().Format(time.RFC3339Nano),
				entry.ArchivedAt.UTC().Format(time.RFC3339Nano),
				string(record),
				position,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	}
	if err := sqlitedb.RetryBusy(ctx, op); err != nil {
		return fmt.Errorf("%w: save archive: %v", queue.ErrPersistence, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
