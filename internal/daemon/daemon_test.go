package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"studioq/internal/archive"
	"studioq/internal/logging"
	"studioq/internal/queue"
	"studioq/internal/testsupport"
)

func TestDaemonLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.NewService(t, cfg)
	d, err := New(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}
	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("expected a bound api address")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status struct {
		Running bool `json:"running"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running=true over http")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.NewService(t, cfg)

	first, err := New(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}
}

func TestDaemonStartReconciles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.NewService(t, cfg)

	ctx := context.Background()

	// Seed an interrupted archive move: the job sits in both stores.
	job := testsupport.MustCreateJob(t, queue.CreateInput{Type: "clip", Description: "interrupted move"})
	if err := job.ApplyStatus(queue.StatusBuildingPrompt, queue.StatusUpdate{}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if err := job.ApplyStatus(queue.StatusFailed, queue.StatusUpdate{Error: "render crashed"}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.Save(ctx, []*queue.Job{job}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	entry, err := archive.NewEntry(job)
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	archiveStore := testsupport.MustOpenArchive(t, cfg)
	if err := archiveStore.Append(ctx, entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	d, err := New(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	jobs, err := svc.List(ctx, queue.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected duplicated job dropped from active store, got %d jobs", len(jobs))
	}
}
