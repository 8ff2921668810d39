package extract

import (
	"context"

	"github.com/corvid-health/termmap/internal/domain"
)

// TermExtractor spots medical terms in free clinical text.
type TermExtractor interface {
	Extract(ctx context.Context, text string) ([]domain.ExtractedTerm, error)
}

// TermResolver maps one extracted term against vocabulary systems.
type TermResolver interface {
	Resolve(ctx context.Context, term domain.Term, systems []domain.System) (domain.ResolutionResult, error)
}

// Pool hands out resolvers with exclusive ownership.
type Pool interface {
	Acquire(ctx context.Context) (TermResolver, error)
	Release(r TermResolver)
}
