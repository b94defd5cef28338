package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"studioq/internal/sqlitedb"
)

// SQLiteStore is the alternative Repository backend. It keeps the same
// whole-collection contract as JSONStore: Save replaces every row inside a
// single transaction, so readers observe either the previous collection or
// the new one, never a mix. Records are stored as their canonical JSON with
// a few indexed columns for inspection with external tools.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    priority   INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    record     TEXT NOT NULL,
    position   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// OpenSQLiteStore initializes or connects to the jobs database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if _, err := db.Exec(jobsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrPersistence, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the backing database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load returns the stored collection in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM jobs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query jobs: %v", ErrPersistence, err)
	}
	defer rows.Close()

	jobs := []*Job{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("%w: scan job: %v", ErrPersistence, err)
		}
		var job Job
		if err := json.Unmarshal([]byte(record), &job); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptStore, s.path, err)
		}
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate jobs: %v", ErrPersistence, err)
	}
	return jobs, nil
}

// Save replaces the stored collection in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, jobs []*Job) error {
	op := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
			return err
		}
		for position, job := range jobs {
			record, err := json.Marshal(job)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO jobs (id, status, priority, created_at, record, position)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				job.ID,
				string(job.Status),
				job.Priority,
				job.CreatedAt.UTC().Format(time.RFC3339Nano),
				string(record),
				position,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	}
	if err := sqlitedb.RetryBusy(ctx, op); err != nil {
		return fmt.Errorf("%w: save jobs: %v", ErrPersistence, err)
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
