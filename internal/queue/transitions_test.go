package queue_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"studioq/internal/queue"
)

func newTestJob(t *testing.T) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.CreateInput{Type: "clip", Description: "Colosseum flyover"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	return job
}

func advanceTo(t *testing.T, job *queue.Job, target queue.Status) {
	t.Helper()
	path := map[queue.Status][]queue.Status{
		queue.StatusBuildingPrompt:  {queue.StatusBuildingPrompt},
		queue.StatusGeneratingImage: {queue.StatusBuildingPrompt, queue.StatusGeneratingImage},
		queue.StatusGeneratingVideo: {queue.StatusBuildingPrompt, queue.StatusGeneratingVideo},
		queue.StatusDelivering:      {queue.StatusBuildingPrompt, queue.StatusGeneratingVideo, queue.StatusDelivering},
		queue.StatusCompleted:       {queue.StatusBuildingPrompt, queue.StatusGeneratingVideo, queue.StatusDelivering, queue.StatusCompleted},
	}
	steps, ok := path[target]
	if !ok {
		t.Fatalf("no advance path to %q", target)
	}
	for _, step := range steps {
		if err := job.ApplyStatus(step, queue.StatusUpdate{}); err != nil {
			t.Fatalf("advance to %q via %q failed: %v", target, step, err)
		}
	}
}

func TestApplyStatusLegalEdges(t *testing.T) {
	cases := []struct {
		from queue.Status
		to   queue.Status
	}{
		{queue.StatusPending, queue.StatusBuildingPrompt},
		{queue.StatusBuildingPrompt, queue.StatusGeneratingImage},
		{queue.StatusBuildingPrompt, queue.StatusGeneratingVideo},
		{queue.StatusGeneratingImage, queue.StatusDelivering},
		{queue.StatusGeneratingVideo, queue.StatusDelivering},
		{queue.StatusDelivering, queue.StatusCompleted},
		{queue.StatusDelivering, queue.StatusFailed},
		{queue.StatusBuildingPrompt, queue.StatusFailed},
	}
	for _, tc := range cases {
		if !queue.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %q -> %q to be legal", tc.from, tc.to)
		}
	}
}

func TestApplyStatusIllegalEdges(t *testing.T) {
	cases := []struct {
		from queue.Status
		to   queue.Status
	}{
		{queue.StatusPending, queue.StatusGeneratingImage},
		{queue.StatusPending, queue.StatusCompleted},
		{queue.StatusGeneratingImage, queue.StatusGeneratingVideo},
		{queue.StatusCompleted, queue.StatusPending},
		{queue.StatusCompleted, queue.StatusFailed},
		{queue.StatusFailed, queue.StatusCompleted},
	}
	for _, tc := range cases {
		if queue.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %q -> %q to be illegal", tc.from, tc.to)
		}
	}
}

func TestApplyStatusRejectionLeavesRecordUnchanged(t *testing.T) {
	job := newTestJob(t)
	advanceTo(t, job, queue.StatusCompleted)

	snapshot := job.Clone()
	err := job.ApplyStatus(queue.StatusPending, queue.StatusUpdate{})
	if !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Status != snapshot.Status {
		t.Fatalf("status changed on rejected transition: %q", job.Status)
	}
	if !job.UpdatedAt.Equal(snapshot.UpdatedAt) {
		t.Fatal("updatedAt changed on rejected transition")
	}
}

func TestCompletedAtTracksTerminalStatus(t *testing.T) {
	job := newTestJob(t)
	advanceTo(t, job, queue.StatusCompleted)
	if job.CompletedAt == nil {
		t.Fatal("expected completedAt on completed job")
	}

	failed := newTestJob(t)
	if err := failed.ApplyStatus(queue.StatusBuildingPrompt, queue.StatusUpdate{}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if err := failed.ApplyStatus(queue.StatusFailed, queue.StatusUpdate{Error: "model unavailable"}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if failed.CompletedAt == nil {
		t.Fatal("expected completedAt on failed job")
	}
	if failed.Error != "model unavailable" {
		t.Fatalf("unexpected error message: %q", failed.Error)
	}

	active := newTestJob(t)
	if err := active.ApplyStatus(queue.StatusBuildingPrompt, queue.StatusUpdate{}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if active.CompletedAt != nil {
		t.Fatal("expected completedAt to stay unset on active job")
	}
}

func TestApplyStatusAppendsOutputPaths(t *testing.T) {
	job := newTestJob(t)
	if err := job.ApplyStatus(queue.StatusBuildingPrompt, queue.StatusUpdate{}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if err := job.ApplyStatus(queue.StatusGeneratingVideo, queue.StatusUpdate{OutputPaths: []string{"/media/a.mp4"}}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if err := job.ApplyStatus(queue.StatusDelivering, queue.StatusUpdate{OutputPaths: []string{"/media/b.mp4"}}); err != nil {
		t.Fatalf("ApplyStatus failed: %v", err)
	}
	if len(job.OutputPaths) != 2 || job.OutputPaths[0] != "/media/a.mp4" || job.OutputPaths[1] != "/media/b.mp4" {
		t.Fatalf("unexpected output paths: %#v", job.OutputPaths)
	}
}

func TestCancel(t *testing.T) {
	job := newTestJob(t)
	before := time.Now().UTC()
	if err := job.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if job.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %q", job.Status)
	}
	if job.Error != queue.CancelReason {
		t.Fatalf("unexpected error message: %q", job.Error)
	}
	if job.CompletedAt == nil || job.CompletedAt.Before(before) {
		t.Fatalf("expected completedAt at or after the call, got %v", job.CompletedAt)
	}
}

func TestCancelRequiresPending(t *testing.T) {
	job := newTestJob(t)
	advanceTo(t, job, queue.StatusGeneratingImage)
	if err := job.Cancel(); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRetryClearsFailure(t *testing.T) {
	job := newTestJob(t)
	if err := job.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := job.Retry(); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %q", job.Status)
	}
	if job.Error != "" {
		t.Fatalf("expected error to be cleared, got %q", job.Error)
	}
	if job.CompletedAt != nil {
		t.Fatal("expected completedAt to be cleared")
	}
}

func TestRetryRequiresFailed(t *testing.T) {
	job := newTestJob(t)
	if err := job.Retry(); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNarrationChain(t *testing.T) {
	job := newTestJob(t)
	steps := []struct {
		next   queue.NarrationStatus
		update queue.NarrationUpdate
	}{
		{queue.NarrationScriptReady, queue.NarrationUpdate{}},
		{queue.NarrationGeneratingTTS, queue.NarrationUpdate{}},
		{queue.NarrationTTSReady, queue.NarrationUpdate{AudioPath: "/audio/voice.wav"}},
		{queue.NarrationComposing, queue.NarrationUpdate{}},
		{queue.NarrationComposed, queue.NarrationUpdate{VideoPath: "/video/narrated.mp4"}},
	}
	for _, step := range steps {
		if err := job.ApplyNarration(step.next, step.update); err != nil {
			t.Fatalf("ApplyNarration(%q) failed: %v", step.next, err)
		}
	}
	if job.NarrationAudioPath != "/audio/voice.wav" {
		t.Fatalf("unexpected audio path: %q", job.NarrationAudioPath)
	}
	if job.NarratedVideoPath != "/video/narrated.mp4" {
		t.Fatalf("unexpected video path: %q", job.NarratedVideoPath)
	}
}

func TestNarrationSkippingStepsIsRejected(t *testing.T) {
	job := newTestJob(t)
	if err := job.ApplyNarration(queue.NarrationComposed, queue.NarrationUpdate{}); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSetNarrationModeConflictPastScriptStage(t *testing.T) {
	job := newTestJob(t)
	if err := job.ApplyNarration(queue.NarrationScriptReady, queue.NarrationUpdate{}); err != nil {
		t.Fatalf("ApplyNarration failed: %v", err)
	}
	if err := job.ApplyNarration(queue.NarrationGeneratingTTS, queue.NarrationUpdate{}); err != nil {
		t.Fatalf("ApplyNarration failed: %v", err)
	}

	snapshot := job.Clone()
	err := job.SetNarrationMode(queue.NarrationManual, "too late")
	if !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if want := "Cannot change narration mode when status is 'generating_tts'"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected message %q, got %v", want, err)
	}
	if job.NarrationMode != snapshot.NarrationMode || job.NarrationScript != snapshot.NarrationScript {
		t.Fatal("narration fields changed on rejected mutation")
	}
}

func TestSetNarrationModeManualScriptAdvances(t *testing.T) {
	job := newTestJob(t)
	if err := job.SetNarrationMode(queue.NarrationManual, "Scene one. The forum at dawn."); err != nil {
		t.Fatalf("SetNarrationMode failed: %v", err)
	}
	if job.NarrationStatus != queue.NarrationScriptReady {
		t.Fatalf("expected script_ready, got %q", job.NarrationStatus)
	}
	if job.NarrationScript == "" {
		t.Fatal("expected script to be stored")
	}
}
