package models

import "testing"

func TestPartitionPages(t *testing.T) {
	p := Partition{Index: 1, First: 4, Last: 6}
	pages := p.Pages()
	if len(pages) != 3 || pages[0] != 4 || pages[2] != 6 {
		t.Fatalf("pages=%v, want [4 5 6]", pages)
	}

	empty := Partition{Index: 3, First: 5, Last: 4}
	if !empty.Empty() || len(empty.Pages()) != 0 {
		t.Fatalf("expected empty partition")
	}
}

func TestRunResultOK(t *testing.T) {
	result := &RunResult{Summaries: []RunSummary{
		{Status: StatusFailed, Succeeded: 2, Failed: 1},
		{Status: StatusCompleted, Succeeded: 5, Failed: 3},
	}}
	if !result.OK() {
		t.Fatalf("one completed partition should make the run OK")
	}
	if result.Succeeded() != 7 || result.Failed() != 4 {
		t.Fatalf("totals=%d/%d, want 7/4", result.Succeeded(), result.Failed())
	}

	result.Summaries[1].Status = StatusFailed
	if result.OK() {
		t.Fatalf("no completed partition should not be OK")
	}
}
