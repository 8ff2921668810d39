package domain

// Term is a free-text input phrase to resolve against the vocabularies.
// Context is an optional clinical hint passed through to remote services;
// it never influences similarity scoring.
type Term struct {
	Text    string
	Context string
}

// Source identifies which pipeline stage produced a candidate.
type Source string

// Candidate sources.
const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Candidate is an unscored code/display pair produced by one lookup stage.
// A candidate is never mutated after creation.
type Candidate struct {
	Code    string
	Display string
	System  System
	Source  Source
	// Terms holds the normalized searchable synonyms a local dataset
	// entry is known under; scoring considers them alongside the display.
	// Remote candidates leave it nil.
	Terms []string
}

// MatchType is the similarity tier that produced a mapping's confidence.
type MatchType string

// Match tiers, strongest first.
const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchFuzzy    MatchType = "fuzzy"
)

// Mapping is a scored candidate included in a resolution result.
type Mapping struct {
	Code       string
	Display    string
	System     System
	Confidence float64
	MatchType  MatchType
}

// ResolutionResult holds the ranked mappings for one input term, keyed by
// vocabulary system. A system with no acceptable candidates maps to an
// empty list; that is a valid outcome, not an error.
type ResolutionResult struct {
	Term     string
	Mappings map[System][]Mapping
}

// NewResolutionResult creates a result with an empty mapping list per system.
func NewResolutionResult(term string, systems []System) ResolutionResult {
	m := make(map[System][]Mapping, len(systems))
	for _, s := range systems {
		m[s] = []Mapping{}
	}
	return ResolutionResult{Term: term, Mappings: m}
}

// TotalMappings returns the number of mappings across all systems.
func (r ResolutionResult) TotalMappings() int {
	n := 0
	for _, ms := range r.Mappings {
		n += len(ms)
	}
	return n
}
