package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gofrs/flock"

	"studioq/internal/fileutil"
)

// JSONStore is the default Repository: one JSON file holding the whole
// collection, rewritten atomically through a temp-file-then-rename. A flock
// on a sibling lock file keeps a concurrently running CLI and daemon from
// interleaving writes to the same file.
type JSONStore struct {
	path string
	lock *flock.Flock
}

const lockRetryDelay = 25 * time.Millisecond

// NewJSONStore builds a store over the given file path. The file itself is
// created on first Save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the backing file. A missing file is the documented "start
// fresh" case and yields an empty collection; a present but unparsable file
// yields ErrCorruptStore so a recoverable queue is never silently discarded.
func (s *JSONStore) Load(ctx context.Context) ([]*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*Job{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*Job{}, nil
	}

	var jobs []*Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptStore, s.path, err)
	}
	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
		}
	}
	return jobs, nil
}

// Save serializes the entire collection and rewrites the file atomically.
func (s *JSONStore) Save(ctx context.Context, jobs []*Job) error {
	if jobs == nil {
		jobs = []*Job{}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal collection: %v", ErrPersistence, err)
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: lock %s: %v", ErrPersistence, s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w: lock %s: not acquired", ErrPersistence, s.lock.Path())
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, s.path, err)
	}
	return nil
}

// Close releases the lock file handle.
func (s *JSONStore) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Close()
}
