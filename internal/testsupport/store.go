package testsupport

import (
	"testing"

	"studioq/internal/api"
	"studioq/internal/archive"
	"studioq/internal/config"
	"studioq/internal/logging"
	"studioq/internal/notifications"
	"studioq/internal/queue"
)

// MustOpenStore opens the configured active-job Repository for tests and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) queue.Repository {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenArchive opens the configured archive store for tests and registers
// cleanup.
func MustOpenArchive(t testing.TB, cfg *config.Config) *archive.Store {
	t.Helper()

	store, err := archive.Open(cfg)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewService wires a full service over the configured stores with a fresh
// notifier registry and a silent logger.
func NewService(t testing.TB, cfg *config.Config) *api.Service {
	t.Helper()

	store := MustOpenStore(t, cfg)
	archiveStore := MustOpenArchive(t, cfg)
	return api.NewService(store, archiveStore, notifications.NewRegistry(), logging.NewNop())
}

// MustCreateJob builds and validates a job for seeding tests.
func MustCreateJob(t testing.TB, input queue.CreateInput) *queue.Job {
	t.Helper()

	if input.Type == "" {
		input.Type = string(queue.TypeImage)
	}
	if input.Description == "" {
		input.Description = "test job"
	}
	job, err := queue.NewJob(input)
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	return job
}
