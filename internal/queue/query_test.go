package queue_test

import (
	"fmt"
	"testing"
	"time"

	"studioq/internal/queue"
)

func fixtureJob(id string, status queue.Status, priority int, createdAt time.Time) *queue.Job {
	return &queue.Job{
		ID:              id,
		Type:            queue.TypeClip,
		Description:     "fixture " + id,
		Status:          status,
		Priority:        priority,
		Source:          queue.SourceDashboard,
		Pipeline:        queue.PipelineHiggsfield,
		NarrationMode:   queue.NarrationAuto,
		NarrationStatus: queue.NarrationNone,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestSortJobsPriorityBeforeRecency(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	a := fixtureJob("job_a", queue.StatusPending, 5, t1)
	b := fixtureJob("job_b", queue.StatusPending, 0, t2)
	jobs := []*queue.Job{b, a}

	queue.SortJobs(jobs)
	if jobs[0].ID != "job_a" || jobs[1].ID != "job_b" {
		t.Fatalf("expected higher priority first, got %q, %q", jobs[0].ID, jobs[1].ID)
	}
}

func TestSortJobsRecencyBreaksPriorityTies(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	older := fixtureJob("job_old", queue.StatusPending, 2, t1)
	newer := fixtureJob("job_new", queue.StatusPending, 2, t2)
	jobs := []*queue.Job{older, newer}

	queue.SortJobs(jobs)
	if jobs[0].ID != "job_new" {
		t.Fatalf("expected newest first on equal priority, got %q", jobs[0].ID)
	}
}

func TestSortJobsIDBreaksFullTies(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jobs := []*queue.Job{
		fixtureJob("job_b", queue.StatusPending, 1, created),
		fixtureJob("job_a", queue.StatusPending, 1, created),
	}
	queue.SortJobs(jobs)
	if jobs[0].ID != "job_a" {
		t.Fatalf("expected id order on full tie, got %q", jobs[0].ID)
	}
}

func TestApplyFilter(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jobs := []*queue.Job{
		fixtureJob("job_1", queue.StatusPending, 0, base),
		fixtureJob("job_2", queue.StatusCompleted, 0, base.Add(time.Minute)),
		fixtureJob("job_3", queue.StatusFailed, 0, base.Add(2*time.Minute)),
		fixtureJob("job_4", queue.StatusPending, 3, base.Add(3*time.Minute)),
	}
	jobs[2].Pipeline = queue.PipelineLocalGPU
	jobs[3].Source = queue.SourceWhatsApp

	cases := []struct {
		name   string
		filter queue.Filter
		want   []string
	}{
		{"all", queue.Filter{}, []string{"job_4", "job_3", "job_2", "job_1"}},
		{"single status", queue.Filter{Statuses: []queue.Status{queue.StatusPending}}, []string{"job_4", "job_1"}},
		{"status union", queue.Filter{Statuses: []queue.Status{queue.StatusCompleted, queue.StatusFailed}}, []string{"job_3", "job_2"}},
		{"pipeline", queue.Filter{Pipeline: queue.PipelineLocalGPU}, []string{"job_3"}},
		{"source", queue.Filter{Source: queue.SourceWhatsApp}, []string{"job_4"}},
		{"limit", queue.Filter{Limit: 2}, []string{"job_4", "job_3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := queue.ApplyFilter(jobs, tc.filter)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d jobs, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %q, got %q", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestApplyFilterDefaultLimit(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jobs := make([]*queue.Job, 0, queue.DefaultListLimit+20)
	for i := 0; i < queue.DefaultListLimit+20; i++ {
		jobs = append(jobs, fixtureJob(fmt.Sprintf("job_%03d", i), queue.StatusPending, 0, base.Add(time.Duration(i)*time.Second)))
	}
	got := queue.ApplyFilter(jobs, queue.Filter{})
	if len(got) != queue.DefaultListLimit {
		t.Fatalf("expected default limit of %d, got %d", queue.DefaultListLimit, len(got))
	}
}

func TestApplyFilterDoesNotReorderInput(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jobs := []*queue.Job{
		fixtureJob("job_low", queue.StatusPending, 0, base),
		fixtureJob("job_high", queue.StatusPending, 9, base),
	}
	_ = queue.ApplyFilter(jobs, queue.Filter{})
	if jobs[0].ID != "job_low" {
		t.Fatal("input slice was reordered")
	}
}

func TestStats(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jobs := []*queue.Job{
		fixtureJob("job_1", queue.StatusPending, 0, base),
		fixtureJob("job_2", queue.StatusPending, 0, base),
		fixtureJob("job_3", queue.StatusCompleted, 0, base),
	}
	counts := queue.Stats(jobs)
	if counts[queue.StatusPending] != 2 || counts[queue.StatusCompleted] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if counts[queue.StatusFailed] != 0 {
		t.Fatalf("expected zero failed, got %d", counts[queue.StatusFailed])
	}
}
