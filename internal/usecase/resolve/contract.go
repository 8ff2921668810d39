package resolve

import (
	"context"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/similarity"
)

// RemoteClient looks a term up in a remote vocabulary service. A failure
// is recovered by falling through to the local stages; it never surfaces
// to the caller.
type RemoteClient interface {
	Lookup(ctx context.Context, term domain.Term) ([]domain.Candidate, error)
}

// LocalStore is a read handle over the embedded vocabulary dataset.
type LocalStore interface {
	ExactOrSubstring(term string, system domain.System) []domain.Candidate
	AllCandidates(system domain.System) []domain.Candidate
}

// Scorer rates candidate display text against the query term.
type Scorer interface {
	Score(query, display string) similarity.Score
}
