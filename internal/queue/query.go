package queue

import "sort"

// DefaultListLimit caps list results when the caller does not ask for one.
const DefaultListLimit = 100

// Filter selects and caps jobs returned by ApplyFilter. Statuses use OR
// semantics; Pipeline and Source are exact matches when set.
type Filter struct {
	Statuses []Status
	Pipeline Pipeline
	Source   Source
	Limit    int
}

func (f Filter) matches(job *Job) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, status := range f.Statuses {
			if job.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Pipeline != "" && job.Pipeline != f.Pipeline {
		return false
	}
	if f.Source != "" && job.Source != f.Source {
		return false
	}
	return true
}

// SortJobs orders jobs by the scheduling policy: priority descending, then
// createdAt descending, with id as a deterministic tie break. A consumer that
// drains the queue head-first therefore always picks the highest priority,
// most recently requested job.
func SortJobs(jobs []*Job) {
	sort.SliceStable(jobs, func(a, b int) bool {
		left, right := jobs[a], jobs[b]
		if left.Priority != right.Priority {
			return left.Priority > right.Priority
		}
		if !left.CreatedAt.Equal(right.CreatedAt) {
			return left.CreatedAt.After(right.CreatedAt)
		}
		return left.ID < right.ID
	})
}

// ApplyFilter returns the matching jobs in scheduling order, capped at the
// filter's limit (DefaultListLimit when unset). The input slice is not
// modified; the result holds the same pointers.
func ApplyFilter(jobs []*Job, filter Filter) []*Job {
	matched := make([]*Job, 0, len(jobs))
	for _, job := range jobs {
		if filter.matches(job) {
			matched = append(matched, job)
		}
	}
	SortJobs(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Stats aggregates job counts per status.
func Stats(jobs []*Job) map[Status]int {
	counts := make(map[Status]int, len(allStatuses))
	for _, job := range jobs {
		counts[job.Status]++
	}
	return counts
}
