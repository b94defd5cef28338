package archive

import (
	"fmt"
	"time"

	"studioq/internal/queue"
)

// Entry is an immutable snapshot of a job at the moment it left the active
// queue.
type Entry struct {
	queue.Job
	ArchivedAt time.Time `json:"archivedAt"`
}

// NewEntry snapshots a terminal job. Only terminal jobs may be archived.
func NewEntry(job *queue.Job) (Entry, error) {
	if job == nil {
		return Entry{}, fmt.Errorf("%w: nil job", queue.ErrValidation)
	}
	if !job.IsTerminal() {
		return Entry{}, fmt.Errorf("%w: only terminal jobs can be archived (status is %q)", queue.ErrInvalidTransition, job.Status)
	}
	return Entry{
		Job:        *job.Clone(),
		ArchivedAt: time.Now().UTC(),
	}, nil
}

func (e *Entry) validate() error {
	if err := e.Job.Validate(); err != nil {
		return err
	}
	if e.ArchivedAt.IsZero() {
		return fmt.Errorf("%w: archive entry missing archivedAt", queue.ErrValidation)
	}
	return nil
}
