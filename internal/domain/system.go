package domain

import (
	"fmt"
	"strings"
)

// System identifies one of the supported coded vocabularies.
type System string

// Supported vocabulary systems.
const (
	SystemSNOMED System = "snomed"
	SystemLOINC  System = "loinc"
	SystemRxNorm System = "rxnorm"
)

// AllSystems returns every supported vocabulary in canonical order.
func AllSystems() []System {
	return []System{SystemSNOMED, SystemLOINC, SystemRxNorm}
}

// Valid reports whether s names a supported vocabulary.
func (s System) Valid() bool {
	switch s {
	case SystemSNOMED, SystemLOINC, SystemRxNorm:
		return true
	}
	return false
}

// URI returns the canonical identifier URI for the vocabulary.
func (s System) URI() string {
	switch s {
	case SystemSNOMED:
		return "http://snomed.info/sct"
	case SystemLOINC:
		return "http://loinc.org"
	case SystemRxNorm:
		return "http://www.nlm.nih.gov/research/umls/rxnorm"
	}
	return ""
}

// ParseSystems converts request tags into a deduplicated system list.
// "all", or an empty list, expands to every supported vocabulary.
func ParseSystems(tags []string) ([]System, error) {
	if len(tags) == 0 {
		return AllSystems(), nil
	}

	seen := make(map[System]bool, len(tags))
	systems := make([]System, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "all" {
			return AllSystems(), nil
		}
		s := System(tag)
		if !s.Valid() {
			return nil, fmt.Errorf("%q: %w", tag, ErrInvalidSystem)
		}
		if !seen[s] {
			seen[s] = true
			systems = append(systems, s)
		}
	}
	return systems, nil
}
