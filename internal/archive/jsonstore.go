package archive

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
	"studioq/internal/queue"
)

// Repository persists the full archive collection, mirroring the contract of
// queue.Repository: whole-collection loads, atomic whole-collection saves.
type Repository interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Close() error
}

// JSONStore is the default archive Repository: one JSON file rewritten
// atomically, guarded by its own flock independent of the active store.
type JSONStore struct {
	path string
	lock *flock.Flock
}

const lockRetryDelay = 25 * time.Millisecond

// NewJSONStore builds a store over the given file path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load reads the backing file. Missing file means an empty archive; a file
// that exists but cannot be parsed yields queue.ErrCorruptStore.
func (s *JSONStore) Load(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", queue.ErrPersistence, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", queue.ErrCorruptStore, s.path, err)
	}
	for i := range entries {
		if err := entries[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", queue.ErrCorruptStore, s.path, err)
		}
	}
	return entries, nil
}

// Save rewrites the whole archive file atomically.
func (s *JSONStore) Save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal archive: %v", queue.ErrPersistence, err)
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: lock %s: %v", queue.ErrPersistence, s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w: lock %s: not acquired", queue.ErrPersistence, s.lock.Path())
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", queue.ErrPersistence, s.path, err)
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
