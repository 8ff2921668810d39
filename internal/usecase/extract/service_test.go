package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
)

type stubResolver struct {
	calls []string
}

func (r *stubResolver) Resolve(_ context.Context, term domain.Term, systems []domain.System) (domain.ResolutionResult, error) {
	r.calls = append(r.calls, term.Text)
	return domain.NewResolutionResult(term.Text, systems), nil
}

type stubPool struct{ resolver *stubResolver }

func (p *stubPool) Acquire(_ context.Context) (TermResolver, error) { return p.resolver, nil }
func (p *stubPool) Release(TermResolver)                            {}

type stubExtractor struct {
	terms []domain.ExtractedTerm
	err   error
}

func (e *stubExtractor) Extract(_ context.Context, _ string) ([]domain.ExtractedTerm, error) {
	return e.terms, e.err
}

func TestPatternExtractor(t *testing.T) {
	text := "Patient with Diabetes and hypertension, on metformin. Glucose elevated. Diabetes confirmed."
	terms, err := NewPatternExtractor().Extract(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	byText := make(map[string]domain.ExtractedTerm, len(terms))
	for _, term := range terms {
		byText[strings.ToLower(term.Text)] = term
	}
	for _, want := range []string{"diabetes", "hypertension", "metformin", "glucose"} {
		if _, ok := byText[want]; !ok {
			t.Fatalf("expected %q extracted, got %v", want, terms)
		}
	}
	if len(terms) != 4 {
		t.Fatalf("expected 4 distinct terms (duplicate dropped), got %d", len(terms))
	}

	d := byText["diabetes"]
	if d.EntityType != "condition" || d.Confidence != patternConfidence {
		t.Fatalf("unexpected term info: %+v", d)
	}
	if text[d.Start:d.End] != "Diabetes" {
		t.Fatalf("offsets do not point at the match: %q", text[d.Start:d.End])
	}
	if byText["metformin"].EntityType != "medication" {
		t.Fatalf("expected medication, got %s", byText["metformin"].EntityType)
	}
}

func TestPatternExtractorNoHits(t *testing.T) {
	terms, err := NewPatternExtractor().Extract(context.Background(), "completely unremarkable prose")
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 0 {
		t.Fatalf("expected no terms, got %v", terms)
	}
}

func TestExtractAndMapEmptyText(t *testing.T) {
	s := New(nil, &stubPool{resolver: &stubResolver{}}, zap.NewNop())
	if _, err := s.ExtractAndMap(context.Background(), "   ", nil); !errors.Is(err, domain.ErrEmptyTerm) {
		t.Fatalf("expected ErrEmptyTerm, got %v", err)
	}
}

func TestExtractAndMapInvalidSystem(t *testing.T) {
	s := New(nil, &stubPool{resolver: &stubResolver{}}, zap.NewNop())
	_, err := s.ExtractAndMap(context.Background(), "asthma", []domain.System{"icd10"})
	if !errors.Is(err, domain.ErrInvalidSystem) {
		t.Fatalf("expected ErrInvalidSystem, got %v", err)
	}
}

func TestExtractAndMapPatternFallbackPath(t *testing.T) {
	resolver := &stubResolver{}
	s := New(nil, &stubPool{resolver: resolver}, zap.NewNop())

	res, err := s.ExtractAndMap(context.Background(), "asthma exacerbation, started insulin", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.AIEnabled {
		t.Fatal("expected AIEnabled=false without a model extractor")
	}
	if len(res.ExtractedTerms) != 2 {
		t.Fatalf("expected 2 extracted terms, got %v", res.ExtractedTerms)
	}
	if len(resolver.calls) != 2 {
		t.Fatalf("expected each term resolved once, got %v", resolver.calls)
	}
	for _, term := range res.ExtractedTerms {
		if _, ok := res.MappedTerms[term.Text]; !ok {
			t.Fatalf("term %q has no mapping entry", term.Text)
		}
	}
}

func TestExtractAndMapModelPreferred(t *testing.T) {
	ai := &stubExtractor{terms: []domain.ExtractedTerm{
		{Text: "chest pain", EntityType: "symptom", Confidence: 0.92},
	}}
	resolver := &stubResolver{}
	s := New(ai, &stubPool{resolver: resolver}, zap.NewNop())

	res, err := s.ExtractAndMap(context.Background(), "complains of chest pain", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.AIEnabled {
		t.Fatal("expected AIEnabled=true")
	}
	if len(res.ExtractedTerms) != 1 || res.ExtractedTerms[0].Text != "chest pain" {
		t.Fatalf("expected model terms used, got %v", res.ExtractedTerms)
	}
}

func TestExtractAndMapModelFailureFallsBack(t *testing.T) {
	ai := &stubExtractor{err: domain.ErrExtractorUnavailable}
	resolver := &stubResolver{}
	s := New(ai, &stubPool{resolver: resolver}, zap.NewNop())

	res, err := s.ExtractAndMap(context.Background(), "pneumonia suspected", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ExtractedTerms) != 1 || !strings.EqualFold(res.ExtractedTerms[0].Text, "pneumonia") {
		t.Fatalf("expected lexicon fallback to find pneumonia, got %v", res.ExtractedTerms)
	}
}

func TestExtractAndMapNoTermsIsNotError(t *testing.T) {
	s := New(nil, &stubPool{resolver: &stubResolver{}}, zap.NewNop())
	res, err := s.ExtractAndMap(context.Background(), "nothing clinical here", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ExtractedTerms) != 0 || len(res.MappedTerms) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
