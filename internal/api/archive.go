package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studioq/internal/archive"
	"studioq/internal/queue"
)

// Archive moves a terminal job from the active store into the archive.
//
// The move is two independent atomic rewrites: append to the archive first,
// then rewrite the active store without the job. A crash between the two can
// only duplicate the job, never lose it; Reconcile resolves the duplicate on
// the next startup.
func (s *Service) Archive(ctx context.Context, id string) (archive.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.store.Load(ctx)
	if err != nil {
		return archive.Entry{}, err
	}

	index := -1
	for i, job := range jobs {
		if job.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return archive.Entry{}, fmt.Errorf("%w: job %s", queue.ErrNotFound, id)
	}

	job := jobs[index]
	entry, err := archive.NewEntry(job)
	if err != nil {
		return archive.Entry{}, err
	}
	if err := s.archive.Append(ctx, entry); err != nil {
		return archive.Entry{}, err
	}

	remaining := append(jobs[:index], jobs[index+1:]...)
	if err := s.store.Save(ctx, remaining); err != nil {
		return archive.Entry{}, fmt.Errorf("remove archived job from active store: %w", err)
	}

	// The removal is a commit to the active store like any other; subscribers
	// get the job's final snapshot.
	s.publish(job)
	s.logger.Info("job archived",
		slog.String("job_id", id),
		slog.String("status", string(entry.Status)))
	return entry, nil
}

// ArchiveSearch queries the archive store.
func (s *Service) ArchiveSearch(ctx context.Context, filter archive.Filter) (archive.Result, error) {
	return s.archive.Search(ctx, filter)
}

// Reconcile removes active jobs whose id already exists in the archive,
// finishing any job move that was interrupted between its two store writes.
// It returns the number of jobs dropped from the active store.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	archived, err := s.archive.IDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(archived) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	remaining := jobs[:0]
	var dropped []*queue.Job
	for _, job := range jobs {
		if _, ok := archived[job.ID]; ok {
			dropped = append(dropped, job)
			continue
		}
		remaining = append(remaining, job)
	}
	if len(dropped) == 0 {
		return 0, nil
	}
	if err := s.store.Save(ctx, remaining); err != nil {
		return 0, err
	}

	for _, job := range dropped {
		s.publish(job)
	}
	s.logger.Warn("reconciled interrupted archive moves", slog.Int("jobs", len(dropped)))
	return len(dropped), nil
}

// ArchiveExpired archives every terminal job whose completion is older than
// the retention window. It returns the number of jobs moved.
func (s *Service) ArchiveExpired(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)

	jobs, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	expired := make([]string, 0)
	for _, job := range jobs {
		if job.IsTerminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			expired = append(expired, job.ID)
		}
	}

	moved := 0
	for _, id := range expired {
		if _, err := s.Archive(ctx, id); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
