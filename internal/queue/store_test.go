package queue_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"studioq/internal/config"
	"studioq/internal/queue"
	"studioq/internal/testsupport"
)

func seedJobs(t *testing.T) []*queue.Job {
	t.Helper()
	first := testsupport.MustCreateJob(t, queue.CreateInput{Type: "clip", Description: "Colosseum flyover", Priority: 3})
	second := testsupport.MustCreateJob(t, queue.CreateInput{Type: "image", Description: "Forum at dawn"})
	if err := second.ApplyStatus(queue.StatusBuildingPrompt, queue.StatusUpdate{}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	return []*queue.Job{first, second}
}

func assertJobsEqual(t *testing.T, want, got []*queue.Job) {
	t.Helper()
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal expected jobs: %v", err)
	}
	gotJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal loaded jobs: %v", err)
	}
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Fatalf("round trip mismatch\nwant: %s\ngot:  %s", wantJSON, gotJSON)
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	jobs := seedJobs(t)
	if err := store.Save(ctx, jobs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertJobsEqual(t, jobs, loaded)
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	jobs, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected empty collection, got %d jobs", len(jobs))
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := os.WriteFile(cfg.ActiveStorePath(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	_, err := store.Load(context.Background())
	if !errors.Is(err, queue.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
	if !errors.Is(err, queue.ErrPersistence) {
		t.Fatalf("expected error to wrap ErrPersistence, got %v", err)
	}
}

func TestJSONStoreRejectsInvalidRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	raw := `[{"id":"job_1","type":"clip","description":"x","status":"warp_speed","priority":0,` +
		`"source":"dashboard","pipeline":"higgsfield","narrationMode":"auto","narrationStatus":"none",` +
		`"createdAt":"2026-08-01T10:00:00Z","updatedAt":"2026-08-01T10:00:00Z"}]`
	if err := os.WriteFile(cfg.ActiveStorePath(), []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	_, err := store.Load(context.Background())
	if !errors.Is(err, queue.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
}

func TestJSONStoreLoadsNegativePriorityRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	raw := `[{"id":"job_1","type":"clip","description":"legacy record","status":"pending","priority":-3,` +
		`"source":"dashboard","pipeline":"higgsfield","narrationMode":"auto","narrationStatus":"none",` +
		`"outputPaths":[],"createdAt":"2026-08-01T10:00:00Z","updatedAt":"2026-08-01T10:00:00Z"}]`
	if err := os.WriteFile(cfg.ActiveStorePath(), []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	jobs, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Priority != -3 {
		t.Fatalf("expected record with its stored priority, got %+v", jobs)
	}
}

func TestJSONStoreSaveNilWritesEmptyCollection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Save(ctx, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	jobs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected empty collection, got %d jobs", len(jobs))
	}
}

func TestJSONStoreRewriteDropsRemovedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	jobs := seedJobs(t)
	if err := store.Save(ctx, jobs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, jobs[:1]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != jobs[0].ID {
		t.Fatalf("expected only %q to survive, got %d jobs", jobs[0].ID, len(loaded))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendSQLite))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	jobs := seedJobs(t)
	if err := store.Save(ctx, jobs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertJobsEqual(t, jobs, loaded)

	if err := store.Save(ctx, jobs[1:]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != jobs[1].ID {
		t.Fatalf("expected only %q to survive, got %d jobs", jobs[1].ID, len(loaded))
	}
}
