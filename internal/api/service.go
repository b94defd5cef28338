package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"studioq/internal/archive"
	"studioq/internal/notifications"
	"studioq/internal/queue"
)

// Service exposes the queue operations used by the dashboard, the ingestion
// bridge, and the pipeline progress callbacks.
type Service struct {
	store    queue.Repository
	archive  *archive.Store
	notifier *notifications.Registry
	logger   *slog.Logger

	// mu serializes mutations of the active store. The archive store carries
	// its own lock; the two are never held for independent operations.
	mu sync.Mutex
}

// NewService wires a service around its stores and notifier. The notifier
// may be nil when no subscriber surface is needed (tests, one-shot CLI use).
func NewService(store queue.Repository, archiveStore *archive.Store, notifier *notifications.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:    store,
		archive:  archiveStore,
		notifier: notifier,
		logger:   logger,
	}
}

// Notifier returns the change registry for subscriber attachment.
func (s *Service) Notifier() *notifications.Registry {
	return s.notifier
}

func (s *Service) publish(job *queue.Job) {
	if s.notifier != nil {
		s.notifier.Publish(job)
	}
}

// Create builds a job from the input, appends it to the active store, and
// announces it.
func (s *Service) Create(ctx context.Context, input queue.CreateInput) (*queue.Job, error) {
	job, err := queue.NewJob(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	jobs = append(jobs, job)
	if err := s.store.Save(ctx, jobs); err != nil {
		return nil, err
	}

	s.logger.Info("job created",
		slog.String("job_id", job.ID),
		slog.String("type", string(job.Type)),
		slog.String("source", string(job.Source)))
	s.publish(job)
	return job.Clone(), nil
}

// List returns matching jobs in scheduling order: priority descending, then
// createdAt descending, ties broken by id.
func (s *Service) List(ctx context.Context, filter queue.Filter) ([]*queue.Job, error) {
	jobs, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	selected := queue.ApplyFilter(jobs, filter)
	out := make([]*queue.Job, len(selected))
	for i, job := range selected {
		out[i] = job.Clone()
	}
	return out, nil
}

// Get fetches a single job by id.
func (s *Service) Get(ctx context.Context, id string) (*queue.Job, error) {
	jobs, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if job.ID == id {
			return job.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: job %s", queue.ErrNotFound, id)
}

// Stats aggregates active job counts per status.
func (s *Service) Stats(ctx context.Context) (map[queue.Status]int, error) {
	jobs, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return queue.Stats(jobs), nil
}

// mutate runs one serialized read-mutate-rewrite sequence against the active
// store. fn mutates the located job in place; any error from fn aborts before
// the rewrite, leaving the stored record unchanged. The committed snapshot is
// published and returned.
func (s *Service) mutate(ctx context.Context, id string, fn func(*queue.Job) error) (*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var job *queue.Job
	for _, candidate := range jobs {
		if candidate.ID == id {
			job = candidate
			break
		}
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %s", queue.ErrNotFound, id)
	}

	if err := fn(job); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, jobs); err != nil {
		return nil, err
	}

	s.publish(job)
	return job.Clone(), nil
}

// UpdateStatus applies a pipeline progress report against the transition
// table. The pending->failed and failed->pending edges are reserved for the
// explicit Cancel and Retry actions and are rejected here.
func (s *Service) UpdateStatus(ctx context.Context, id string, next queue.Status, update queue.StatusUpdate) (*queue.Job, error) {
	job, err := s.mutate(ctx, id, func(job *queue.Job) error {
		if next == queue.StatusPending {
			return fmt.Errorf("%w: returning to %q is reserved for the retry action", queue.ErrInvalidTransition, next)
		}
		if job.Status == queue.StatusPending && next == queue.StatusFailed {
			return fmt.Errorf("%w: failing a pending job is reserved for the cancel action", queue.ErrInvalidTransition)
		}
		return job.ApplyStatus(next, update)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job status updated",
		slog.String("job_id", id),
		slog.String("status", string(next)))
	return job, nil
}

// UpdateNarration applies a narration backend progress report.
func (s *Service) UpdateNarration(ctx context.Context, id string, next queue.NarrationStatus, update queue.NarrationUpdate) (*queue.Job, error) {
	job, err := s.mutate(ctx, id, func(job *queue.Job) error {
		return job.ApplyNarration(next, update)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("narration updated",
		slog.String("job_id", id),
		slog.String("narration_status", string(next)))
	return job, nil
}

// Cancel fails a pending job on behalf of the dashboard user.
func (s *Service) Cancel(ctx context.Context, id string) (*queue.Job, error) {
	job, err := s.mutate(ctx, id, func(job *queue.Job) error {
		return job.Cancel()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job cancelled", slog.String("job_id", id))
	return job, nil
}

// Retry returns a failed job to pending.
func (s *Service) Retry(ctx context.Context, id string) (*queue.Job, error) {
	job, err := s.mutate(ctx, id, func(job *queue.Job) error {
		return job.Retry()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job retried", slog.String("job_id", id))
	return job, nil
}

// SetPriority rewrites a job's scheduling priority.
func (s *Service) SetPriority(ctx context.Context, id string, priority int) (*queue.Job, error) {
	if priority < 0 {
		return nil, fmt.Errorf("%w: priority must not be negative (got %d)", queue.ErrValidation, priority)
	}
	return s.mutate(ctx, id, func(job *queue.Job) error {
		job.Priority = priority
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// SetSchedule rewrites a job's future-dispatch timestamp. A nil value clears
// it.
func (s *Service) SetSchedule(ctx context.Context, id string, scheduledAt *time.Time) (*queue.Job, error) {
	return s.mutate(ctx, id, func(job *queue.Job) error {
		job.ScheduledAt = scheduledAt
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// SetNarrationMode rewrites the narration mode and optionally the script,
// subject to the narration stage gate.
func (s *Service) SetNarrationMode(ctx context.Context, id string, mode queue.NarrationMode, script string) (*queue.Job, error) {
	return s.mutate(ctx, id, func(job *queue.Job) error {
		return job.SetNarrationMode(mode, script)
	})
}
