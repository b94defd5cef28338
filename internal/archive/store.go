package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"studioq/internal/config"
	"studioq/internal/queue"
)

// Search limits. Requested limits above MaxSearchLimit are capped, never
// honored.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// Filter selects archive entries for Search. Search is a case-insensitive
// substring match over description or id; Type and Status are exact matches
// when set.
type Filter struct {
	Search string
	Type   queue.JobType
	Status queue.Status
	Limit  int
	Offset int
}

// Result is one page of archive entries plus the filtered total before
// pagination.
type Result struct {
	Entries []Entry
	Total   int
}

// Store wraps an archive Repository with its own mutation lock. The lock is
// deliberately separate from the active store's; archiving coordinates the
// two stores at the service layer, never through a shared lock.
type Store struct {
	mu   sync.Mutex
	repo Repository
}

// Open builds the archive store selected by the configuration.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		repo, err := OpenSQLiteStore(cfg.ArchiveStorePath())
		if err != nil {
			return nil, err
		}
		return NewStore(repo), nil
	default:
		return NewStore(NewJSONStore(cfg.ArchiveStorePath())), nil
	}
}

// NewStore wraps a Repository.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Append adds an entry to the archive. Appending an id that is already
// archived is a no-op, which makes the archive half of a job move idempotent
// across crash recovery.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == entry.ID {
			return nil
		}
	}
	entries = append(entries, entry)
	return s.repo.Save(ctx, entries)
}

// IDs returns the set of archived job ids.
func (s *Store) IDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(entries))
	for i := range entries {
		ids[entries[i].ID] = struct{}{}
	}
	return ids, nil
}

// Search returns the filtered archive sorted newest-first, paginated by
// limit and offset. Total reflects the filtered count before pagination.
func (s *Store) Search(ctx context.Context, filter Filter) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.repo.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(filter.Search))

	matched := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if needle != "" &&
			!strings.Contains(fold.String(entry.Description), needle) &&
			!strings.Contains(fold.String(entry.ID), needle) {
			continue
		}
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		matched = append(matched, entry)
	}

	sort.SliceStable(matched, func(a, b int) bool {
		if !matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].CreatedAt.After(matched[b].CreatedAt)
		}
		return matched[a].ID < matched[b].ID
	})

	total := len(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]Entry, end-offset)
	copy(page, matched[offset:end])
	return Result{Entries: page, Total: total}, nil
}

// Close closes the underlying repository.
func (s *Store) Close() error {
	if s == nil || s.repo == nil {
		return nil
	}
	return s.repo.Close()
}
