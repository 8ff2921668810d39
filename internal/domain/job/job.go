// Package job models tracked asynchronous batch resolution runs.
package job

import (
	"time"

	"github.com/corvid-health/termmap/internal/domain"
)

// Status is the lifecycle state of a batch job.
type Status string

// Job lifecycle states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle step. Completed and failed are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Job tracks one asynchronous batch resolution run. A job is mutated only
// by the background task that owns it; everyone else reads snapshots.
// Jobs are process-scoped unless a durable registry is configured.
type Job struct {
	ID             string                    `json:"id"`
	Status         Status                    `json:"status"`
	TotalTerms     int                       `json:"total_terms"`
	ProcessedTerms int                       `json:"processed_terms"`
	Results        []domain.ResolutionResult `json:"results,omitempty"`
	Error          string                    `json:"error,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// New creates a pending job for the given number of terms.
func New(id string, totalTerms int) Job {
	now := time.Now().UTC()
	return Job{
		ID:         id,
		Status:     StatusPending,
		TotalTerms: totalTerms,
		Results:    make([]domain.ResolutionResult, 0, totalTerms),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Snapshot returns a copy safe to hand to pollers while the owning task
// keeps appending results.
func (j Job) Snapshot() Job {
	cp := j
	cp.Results = make([]domain.ResolutionResult, len(j.Results))
	copy(cp.Results, j.Results)
	return cp
}
