// Package extract finds medical terms in free clinical text and maps
// them to vocabulary codes. A language model extractor is used when
// configured; lexicon pattern matching covers the rest.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/metrics"
)

// Service extracts terms and resolves each against the vocabularies.
type Service struct {
	ai       TermExtractor // nil when no model is configured
	patterns TermExtractor
	pool     Pool
	logger   *zap.Logger
}

// New creates the extraction service. ai may be nil.
func New(ai TermExtractor, pool Pool, logger *zap.Logger) *Service {
	return &Service{
		ai:       ai,
		patterns: NewPatternExtractor(),
		pool:     pool,
		logger:   logger,
	}
}

// AIEnabled reports whether a language model extractor is configured.
func (s *Service) AIEnabled() bool { return s.ai != nil }

// ExtractAndMap extracts terms from text and maps each against the
// requested systems. When the model extractor fails, the lexicon
// extractor takes over rather than failing the request.
func (s *Service) ExtractAndMap(
	ctx context.Context, text string, systems []domain.System,
) (domain.ExtractionResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ExtractionResult{}, fmt.Errorf("extract: %w", domain.ErrEmptyTerm)
	}
	if len(systems) == 0 {
		systems = domain.AllSystems()
	}
	for _, sys := range systems {
		if !sys.Valid() {
			return domain.ExtractionResult{}, fmt.Errorf("extract: %q: %w", sys, domain.ErrInvalidSystem)
		}
	}

	terms, kind := s.extract(ctx, text)
	metrics.ExtractedTermsTotal.WithLabelValues(kind).Add(float64(len(terms)))

	result := domain.ExtractionResult{
		AIEnabled:      s.AIEnabled(),
		ExtractedTerms: terms,
		MappedTerms:    make(map[string]domain.ResolutionResult, len(terms)),
	}
	if len(terms) == 0 {
		return result, nil
	}

	resolver, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("acquire resolver: %w", err)
	}
	defer s.pool.Release(resolver)

	for _, t := range terms {
		res, err := resolver.Resolve(ctx, domain.Term{Text: t.Text, Context: text}, systems)
		if err != nil {
			return domain.ExtractionResult{}, fmt.Errorf("map %q: %w", t.Text, err)
		}
		result.MappedTerms[t.Text] = res
	}
	return result, nil
}

// extract runs the model extractor when available and falls back to the
// lexicon when it errors.
func (s *Service) extract(ctx context.Context, text string) ([]domain.ExtractedTerm, string) {
	if s.ai != nil {
		terms, err := s.ai.Extract(ctx, text)
		if err == nil {
			return terms, "model"
		}
		s.logger.Warn("model extraction failed, using pattern fallback", zap.Error(err))
	}
	terms, _ := s.patterns.Extract(ctx, text)
	return terms, "pattern"
}
