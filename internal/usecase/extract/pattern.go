package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/corvid-health/termmap/internal/domain"
)

// patternConfidence is the fixed confidence assigned to lexicon hits.
// Pattern matching cannot judge context, so every hit scores the same.
const patternConfidence = 0.7

type lexicon struct {
	entityType string
	re         *regexp.Regexp
}

var lexicons = []lexicon{
	{"condition", regexp.MustCompile(`(?i)\b(?:diabetes|hypertension|asthma|pneumonia|covid-19|coronavirus|copd|anemia|sepsis|migraine|bronchitis|arthritis)\b`)},
	{"lab", regexp.MustCompile(`(?i)\b(?:glucose|hemoglobin|creatinine|cholesterol|triglycerides|potassium|sodium|bilirubin)\b`)},
	{"medication", regexp.MustCompile(`(?i)\b(?:metformin|insulin|aspirin|lisinopril|atorvastatin|amoxicillin|ibuprofen|warfarin|omeprazole)\b`)},
}

// PatternExtractor finds known medical terms by lexicon regexps. It is
// the always-available fallback when no language model is configured.
type PatternExtractor struct{}

// NewPatternExtractor creates the lexicon-based extractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract scans the text against all lexicons. Each distinct term is
// reported once, at its first occurrence.
func (p *PatternExtractor) Extract(_ context.Context, text string) ([]domain.ExtractedTerm, error) {
	seen := make(map[string]struct{})
	terms := make([]domain.ExtractedTerm, 0, 8)

	for _, lex := range lexicons {
		for _, loc := range lex.re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			key := strings.ToLower(match)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			terms = append(terms, domain.ExtractedTerm{
				Text:       match,
				EntityType: lex.entityType,
				Confidence: patternConfidence,
				Start:      loc[0],
				End:        loc[1],
			})
		}
	}
	return terms, nil
}
