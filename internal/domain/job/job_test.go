package job

import (
	"testing"

	"github.com/corvid-health/termmap/internal/domain"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNewJob(t *testing.T) {
	j := New("job-1", 7)

	if j.ID != "job-1" {
		t.Errorf("ID = %q", j.ID)
	}
	if j.Status != StatusPending {
		t.Errorf("Status = %q, want pending", j.Status)
	}
	if j.TotalTerms != 7 || j.ProcessedTerms != 0 {
		t.Errorf("counters = %d/%d", j.ProcessedTerms, j.TotalTerms)
	}
	if j.Results == nil || len(j.Results) != 0 {
		t.Errorf("Results = %v, want empty non-nil", j.Results)
	}
	if j.CreatedAt.IsZero() || !j.CreatedAt.Equal(j.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", j.CreatedAt, j.UpdatedAt)
	}
}

func TestSnapshotIsolatesResults(t *testing.T) {
	j := New("job-2", 2)
	j.Results = append(j.Results, domain.ResolutionResult{Term: "glucose"})

	snap := j.Snapshot()
	j.Results = append(j.Results, domain.ResolutionResult{Term: "insulin"})
	j.Results[0].Term = "mutated"

	if len(snap.Results) != 1 {
		t.Fatalf("snapshot results = %d, want 1", len(snap.Results))
	}
	if snap.Results[0].Term != "glucose" {
		t.Errorf("snapshot term = %q, want original value", snap.Results[0].Term)
	}
}
