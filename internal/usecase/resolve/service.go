// Package resolve implements the term resolution pipeline: an ordered
// multi-source search per vocabulary system with a unified confidence
// model over whatever stage produced candidates.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/similarity"
	"github.com/corvid-health/termmap/internal/metrics"
)

// Default result shaping.
const (
	DefaultMinConfidence = 0.60
	DefaultMaxPerSystem  = 3
)

// Options controls result filtering and truncation.
type Options struct {
	// MinConfidence filters mappings below this confidence.
	MinConfidence float64
	// MaxPerSystem caps the mappings kept per vocabulary system.
	MaxPerSystem int
}

// DefaultOptions returns the standard result shaping.
func DefaultOptions() Options {
	return Options{MinConfidence: DefaultMinConfidence, MaxPerSystem: DefaultMaxPerSystem}
}

// Resolver runs the resolution pipeline. A resolver owns its store handle
// and remote clients exclusively; it must never be used by two callers at
// once. Obtain one from a Pool.
type Resolver struct {
	remotes map[domain.System]RemoteClient
	store   LocalStore
	scorer  Scorer
	opts    Options
	logger  *zap.Logger
}

// NewResolver creates a resolver over the given sources.
func NewResolver(
	remotes map[domain.System]RemoteClient,
	store LocalStore,
	scorer Scorer,
	opts Options,
	logger *zap.Logger,
) *Resolver {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.MaxPerSystem <= 0 {
		opts.MaxPerSystem = DefaultMaxPerSystem
	}
	return &Resolver{
		remotes: remotes,
		store:   store,
		scorer:  scorer,
		opts:    opts,
		logger:  logger,
	}
}

// Resolve maps one term against the requested vocabulary systems. Systems
// resolve independently and concurrently; within a system the stages run
// in strict priority order, stopping at the first stage that yields at
// least one mapping above the confidence threshold. "No match" is a valid
// outcome, never an error.
func (r *Resolver) Resolve(
	ctx context.Context, term domain.Term, systems []domain.System,
) (domain.ResolutionResult, error) {
	term.Text = strings.TrimSpace(term.Text)
	if term.Text == "" {
		return domain.ResolutionResult{}, domain.ErrEmptyTerm
	}
	if len(systems) == 0 {
		systems = domain.AllSystems()
	}
	for _, sys := range systems {
		if !sys.Valid() {
			return domain.ResolutionResult{}, fmt.Errorf("%q: %w", sys, domain.ErrInvalidSystem)
		}
	}

	result := domain.NewResolutionResult(term.Text, systems)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, sys := range systems {
		wg.Add(1)
		go func(sys domain.System) {
			defer wg.Done()
			mappings := r.resolveSystem(ctx, term, sys)
			mu.Lock()
			result.Mappings[sys] = mappings
			mu.Unlock()
		}(sys)
	}
	wg.Wait()

	return result, nil
}

// resolveSystem runs the staged pipeline for one vocabulary system.
func (r *Resolver) resolveSystem(ctx context.Context, term domain.Term, sys domain.System) []domain.Mapping {
	stages := []struct {
		name string
		run  func() []domain.Candidate
	}{
		{"remote", func() []domain.Candidate { return r.remoteStage(ctx, term, sys) }},
		{"local", func() []domain.Candidate { return r.store.ExactOrSubstring(term.Text, sys) }},
		{"similarity", func() []domain.Candidate { return r.store.AllCandidates(sys) }},
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			// Caller is gone; abandon in-flight work.
			return []domain.Mapping{}
		}
		mappings := r.scoreAndRank(term.Text, stage.run())
		if len(mappings) > 0 {
			metrics.ResolveStageTotal.WithLabelValues(string(sys), stage.name, "hit").Inc()
			return mappings
		}
		metrics.ResolveStageTotal.WithLabelValues(string(sys), stage.name, "miss").Inc()
	}
	return []domain.Mapping{}
}

// remoteStage consults the provider chain for a system. Any failure is
// recovered locally and treated as "no candidates from this stage".
func (r *Resolver) remoteStage(ctx context.Context, term domain.Term, sys domain.System) []domain.Candidate {
	remote, ok := r.remotes[sys]
	if !ok {
		return nil
	}
	cands, err := remote.Lookup(ctx, term)
	if err != nil {
		r.logger.Debug("remote stage failed, falling through",
			zap.String("system", string(sys)),
			zap.String("term", term.Text),
			zap.Error(err),
		)
		return nil
	}
	return cands
}

// scoreAndRank turns candidates into mappings: score each against the
// query, drop those below the confidence threshold, order by confidence
// descending with stable source-order ties, and truncate.
func (r *Resolver) scoreAndRank(query string, cands []domain.Candidate) []domain.Mapping {
	if len(cands) == 0 {
		return nil
	}

	mappings := make([]domain.Mapping, 0, len(cands))
	for _, c := range cands {
		sc := r.scoreCandidate(query, c)
		if sc.Confidence < r.opts.MinConfidence {
			continue
		}
		mappings = append(mappings, domain.Mapping{
			Code:       c.Code,
			Display:    c.Display,
			System:     c.System,
			Confidence: sc.Confidence,
			MatchType:  sc.MatchType,
		})
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].Confidence > mappings[j].Confidence
	})

	if len(mappings) > r.opts.MaxPerSystem {
		mappings = mappings[:r.opts.MaxPerSystem]
	}
	return mappings
}

// scoreCandidate rates a candidate on its best-matching basis: the
// display plus every searchable synonym the dataset knows the entry
// under. An entry found through a synonym or abbreviation keeps the
// confidence of that match rather than being rated against a display it
// shares no text with.
func (r *Resolver) scoreCandidate(query string, c domain.Candidate) similarity.Score {
	best := r.scorer.Score(query, c.Display)
	for _, t := range c.Terms {
		if best.Confidence == 1.0 {
			break
		}
		if sc := r.scorer.Score(query, t); sc.Confidence > best.Confidence {
			best = sc
		}
	}
	return best
}
