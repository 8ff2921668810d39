package batch

import (
	"context"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/job"
)

// TermResolver maps a single term against the requested vocabulary systems.
type TermResolver interface {
	Resolve(ctx context.Context, term domain.Term, systems []domain.System) (domain.ResolutionResult, error)
}

// Pool hands out resolvers with exclusive ownership for the duration of
// one chunk.
type Pool interface {
	Acquire(ctx context.Context) (TermResolver, error)
	Release(r TermResolver)
}

// Registry persists job state. The in-memory registry is the default; a
// redis-backed one keeps jobs across restarts.
type Registry interface {
	Save(ctx context.Context, j job.Job) error
	Get(ctx context.Context, id string) (job.Job, error)
}
