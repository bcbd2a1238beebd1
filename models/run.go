package models

import "time"

// Partition is a contiguous, inclusive range of catalog pages owned by one
// worker for the whole run. First > Last means the partition is empty.
type Partition struct {
	Index int `json:"index"`
	First int `json:"first"`
	Last  int `json:"last"`
}

// Len returns the number of pages in the partition.
func (p Partition) Len() int {
	if p.Last < p.First {
		return 0
	}
	return p.Last - p.First + 1
}

// Empty reports whether the partition has no pages.
func (p Partition) Empty() bool {
	return p.Len() == 0
}

// Pages lists the page ids in ascending order.
func (p Partition) Pages() []int {
	out := make([]int, 0, p.Len())
	for page := p.First; page <= p.Last; page++ {
		out = append(out, page)
	}
	return out
}

// PartitionStatus is the terminal state of one partition.
type PartitionStatus string

const (
	StatusCompleted PartitionStatus = "completed"
	StatusFailed    PartitionStatus = "failed"
	StatusCancelled PartitionStatus = "cancelled"
)

// RunSummary holds the counters of one worker. Only that worker mutates it.
type RunSummary struct {
	Partition    Partition       `json:"partition"`
	Status       PartitionStatus `json:"status"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	PagesFailed  int             `json:"pages_failed"`
	ItemsFailed  int             `json:"items_failed"`
	Duplicates   int             `json:"duplicates"`
	Retries      int             `json:"retries"`
	FailedPages  []int           `json:"failed_pages,omitempty"`
	FailedItems  []string        `json:"failed_items,omitempty"`
	ErrorsByType map[string]int  `json:"errors_by_type,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  time.Time       `json:"completed_at"`
	Err          string          `json:"error,omitempty"`
}

// Duration is the wall time the partition took.
func (s RunSummary) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// RunResult aggregates all partition summaries of a run.
type RunResult struct {
	RunID     string       `json:"run_id"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Summaries []RunSummary `json:"summaries"`
}

// Completed counts partitions that reached the end of their pages.
func (r *RunResult) Completed() int {
	n := 0
	for _, s := range r.Summaries {
		if s.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Succeeded totals records written across partitions.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, s := range r.Summaries {
		n += s.Succeeded
	}
	return n
}

// Failed totals failed pages and items across partitions.
func (r *RunResult) Failed() int {
	n := 0
	for _, s := range r.Summaries {
		n += s.Failed
	}
	return n
}

// OK reports whether at least one partition completed.
func (r *RunResult) OK() bool {
	return r.Completed() > 0
}
