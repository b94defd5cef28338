package notifications

import (
	"sync"

	"studioq/internal/queue"
)

// JobListener receives a snapshot of a job after a committed change.
// Listeners must not block for long; slow consumers should hand off to their
// own goroutine.
type JobListener func(job *queue.Job)

// Registry is an explicit subscriber registry for job-change events.
type Registry struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]JobListener
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[int]JobListener)}
}

// Subscribe registers a listener and returns a cancel function that removes
// it. Cancel is safe to call more than once.
func (r *Registry) Subscribe(listener JobListener) func() {
	if listener == nil {
		return func() {}
	}

	r.mu.Lock()
	id := r.next
	r.next++
	r.listeners[id] = listener
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Publish delivers a job snapshot to every subscriber. Each listener gets its
// own clone so no subscriber can mutate another's view.
func (r *Registry) Publish(job *queue.Job) {
	if r == nil || job == nil {
		return
	}

	r.mu.RLock()
	listeners := make([]JobListener, 0, len(r.listeners))
	for _, listener := range r.listeners {
		listeners = append(listeners, listener)
	}
	r.mu.RUnlock()

	for _, listener := range listeners {
		listener(job.Clone())
	}
}
