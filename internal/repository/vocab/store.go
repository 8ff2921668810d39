package vocab

import (
	"strings"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/similarity"
)

// Handle is a per-resolver read handle over the shared dataset. A handle
// must not be used by two goroutines at once; the underlying data is
// immutable, so separate handles are always safe concurrently.
type Handle struct {
	data *Dataset
}

// ExactOrSubstring looks a term up by normalized equality first, then by
// substring containment over every searchable term. The query is expanded
// through known abbreviations and prefix variations before the exact pass.
func (h *Handle) ExactOrSubstring(term string, sys domain.System) []domain.Candidate {
	q := similarity.Normalize(term)
	if q == "" {
		return nil
	}

	index := h.data.exact[sys]
	entries := h.data.entries[sys]

	for _, variant := range similarity.ExpandQuery(q) {
		if idx, ok := index[variant]; ok {
			return []domain.Candidate{entries[idx].candidate}
		}
	}

	// Substring pass. Very short queries are skipped: a two-letter
	// fragment is contained in half the vocabulary.
	if len(q) < minSubstringLen {
		return nil
	}
	var out []domain.Candidate
	seen := make(map[string]bool)
	for _, e := range entries {
		for _, t := range e.terms {
			if strings.Contains(t, q) || strings.Contains(q, t) {
				if !seen[e.candidate.Code] {
					seen[e.candidate.Code] = true
					out = append(out, e.candidate)
				}
				break
			}
		}
	}
	return out
}

// minSubstringLen is the shortest query the substring pass will accept.
const minSubstringLen = 3

// AllCandidates returns every candidate for a system, for the similarity
// engine to scan. The returned slice is freshly allocated; the Terms
// slices inside it stay shared and must not be mutated.
func (h *Handle) AllCandidates(sys domain.System) []domain.Candidate {
	entries := h.data.entries[sys]
	out := make([]domain.Candidate, len(entries))
	for i, e := range entries {
		out[i] = e.candidate
	}
	return out
}
