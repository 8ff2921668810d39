// Package jobs provides batch job registries: in-memory for the default
// process-scoped lifecycle and redis-backed for deployments that need
// jobs to survive restarts.
package jobs

import (
	"context"
	"sync"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/job"
)

// Memory is a process-scoped job registry. Jobs vanish on restart.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]job.Job
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]job.Job)}
}

// Save stores a job snapshot, replacing any previous state.
func (m *Memory) Save(_ context.Context, j job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j.Snapshot()
	return nil
}

// Get returns a snapshot of the job or domain.ErrJobNotFound.
func (m *Memory) Get(_ context.Context, id string) (job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return job.Job{}, domain.ErrJobNotFound
	}
	return j.Snapshot(), nil
}

// Len returns the number of tracked jobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
