package queue

import "context"

// Repository persists the active job collection. Implementations always
// operate on the full collection: Save replaces everything the previous Save
// wrote, atomically, so a failed write never exposes a partially applied
// mutation. The backing file or database holds exactly one collection.
//
// Repositories do not serialize read-mutate-rewrite sequences; that is the
// calling service's job (one mutation lock per store).
type Repository interface {
	// Load returns the stored collection. A store that has never been
	// written yields an empty collection; a store that exists but cannot be
	// parsed yields ErrCorruptStore.
	Load(ctx context.Context) ([]*Job, error)

	// Save atomically replaces the stored collection.
	Save(ctx context.Context, jobs []*Job) error

	Close() error
}
