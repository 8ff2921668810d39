// Package similarity scores free-text queries against vocabulary search
// terms and display strings. The tiers form one comparable confidence
// scale: an exact normalized match always beats containment, which
// always beats fuzzy.
package similarity

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/corvid-health/termmap/internal/domain"
)

// Defaults tuned against the reference vocabulary datasets.
const (
	// DefaultContainmentFloor is the minimum confidence a containment
	// match receives regardless of the raw ratio.
	DefaultContainmentFloor = 0.85
	// DefaultLengthRatioGuard rejects non-exact matches between strings
	// whose lengths differ too much. A short fragment can score highly
	// against a much longer candidate purely through partial overlap or
	// containment; the guard zeroes those out.
	DefaultLengthRatioGuard = 0.30
)

// Score is the outcome of rating one candidate display against a query.
type Score struct {
	Confidence float64
	MatchType  domain.MatchType
}

// Scorer rates query/display pairs. The zero value is not usable; create
// one with NewScorer.
type Scorer struct {
	containmentFloor float64
	lengthRatioGuard float64
}

// NewScorer creates a scorer with default thresholds.
func NewScorer() *Scorer {
	return &Scorer{
		containmentFloor: DefaultContainmentFloor,
		lengthRatioGuard: DefaultLengthRatioGuard,
	}
}

// WithContainmentFloor overrides the containment confidence floor.
func (s *Scorer) WithContainmentFloor(floor float64) *Scorer {
	if floor > 0 && floor <= 1 {
		s.containmentFloor = floor
	}
	return s
}

// WithLengthRatioGuard overrides the length-ratio guard applied to the
// containment and fuzzy tiers.
func (s *Scorer) WithLengthRatioGuard(ratio float64) *Scorer {
	if ratio >= 0 && ratio < 1 {
		s.lengthRatioGuard = ratio
	}
	return s
}

// Score rates how well the candidate text matches the query. The query is
// expanded through known abbreviations and prefix variations; the best
// variant wins, so "dm" scores 1.0 against "diabetes mellitus". Per
// variant the first applicable tier decides: exact, containment, fuzzy.
// Confidence is always in [0,1]; a non-exact pair whose lengths differ
// beyond the guard scores 0.
func (s *Scorer) Score(query, target string) Score {
	q := Normalize(query)
	d := Normalize(target)
	if q == "" || d == "" {
		return Score{}
	}

	// The unmodified query comes first and sets the baseline; a variant
	// only takes over with a strictly better confidence.
	var best Score
	for i, v := range ExpandQuery(q) {
		sc := s.scoreVariant(v, d)
		if i == 0 || sc.Confidence > best.Confidence {
			best = sc
		}
		if best.Confidence == 1.0 {
			break
		}
	}
	return best
}

func (s *Scorer) scoreVariant(q, d string) Score {
	if q == d {
		return Score{Confidence: 1.0, MatchType: domain.MatchExact}
	}

	// A two-letter fragment is contained in half the vocabulary, so the
	// guard runs before the containment tier as well.
	if lengthRatio(q, d) < s.lengthRatioGuard {
		return Score{}
	}

	if strings.Contains(d, q) || strings.Contains(q, d) {
		conf := max(s.containmentFloor, ratio(q, d))
		return Score{Confidence: conf, MatchType: domain.MatchContains}
	}

	// Triple max handles word reordering and partial phrase overlap
	// without favoring any single metric.
	conf := max(
		ratio(q, d),
		float64(fuzzy.TokenSortRatio(q, d))/100,
		float64(fuzzy.TokenSetRatio(q, d))/100,
	)
	return Score{Confidence: conf, MatchType: domain.MatchFuzzy}
}

// Normalize lowercases, trims, and collapses interior whitespace so that
// scoring and exact lookup agree on what "the same string" means.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ratio is the position-sensitive similarity, normalized to [0,1].
func ratio(a, b string) float64 {
	return float64(fuzzy.Ratio(a, b)) / 100
}

// lengthRatio is min(len)/max(len) over the two strings.
func lengthRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return float64(min(la, lb)) / float64(max(la, lb))
}
