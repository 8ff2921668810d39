// Package vocab serves the embedded read-only vocabulary datasets. The
// data is compiled into the binary and parsed once per process; handles
// issued to resolvers share the immutable parsed form, so concurrent
// reads never need locking.
package vocab

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/similarity"
)

//go:embed data/*.json
var dataFS embed.FS

// record mirrors one entry in an embedded dataset file.
type record struct {
	Code    string   `json:"code"`
	Display string   `json:"display"`
	Terms   []string `json:"terms,omitempty"`
}

// entry is a parsed candidate plus its normalized searchable terms.
type entry struct {
	candidate domain.Candidate
	terms     []string
}

// Dataset is the parsed, immutable vocabulary data. One Dataset is shared
// by every handle; nothing writes to it after Load returns.
type Dataset struct {
	entries map[domain.System][]entry
	exact   map[domain.System]map[string]int
}

// Load parses every embedded dataset file.
func Load() (*Dataset, error) {
	d := &Dataset{
		entries: make(map[domain.System][]entry),
		exact:   make(map[domain.System]map[string]int),
	}
	for _, sys := range domain.AllSystems() {
		if err := d.loadSystem(sys); err != nil {
			return nil, fmt.Errorf("load %s dataset: %w", sys, err)
		}
	}
	return d, nil
}

func (d *Dataset) loadSystem(sys domain.System) error {
	raw, err := dataFS.ReadFile(fmt.Sprintf("data/%s.json", sys))
	if err != nil {
		return fmt.Errorf("read embedded file: %w", err)
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	entries := make([]entry, 0, len(records))
	index := make(map[string]int, len(records)*2)

	for _, rec := range records {
		if rec.Code == "" || rec.Display == "" {
			return fmt.Errorf("record missing code or display: %+v", rec)
		}
		e := entry{
			candidate: domain.Candidate{
				Code:    rec.Code,
				Display: rec.Display,
				System:  sys,
				Source:  domain.SourceLocal,
			},
		}
		terms := make([]string, 0, len(rec.Terms)+1)
		terms = append(terms, similarity.Normalize(rec.Display))
		for _, t := range rec.Terms {
			if n := similarity.Normalize(t); n != "" {
				terms = append(terms, n)
			}
		}
		e.terms = terms
		e.candidate.Terms = terms

		idx := len(entries)
		entries = append(entries, e)
		for _, t := range terms {
			// First entry claiming a term wins; later duplicates keep
			// their own display but lose the exact-lookup slot.
			if _, taken := index[t]; !taken {
				index[t] = idx
			}
		}
	}

	d.entries[sys] = entries
	d.exact[sys] = index
	return nil
}

// Count returns the number of entries loaded for a system.
func (d *Dataset) Count(sys domain.System) int {
	return len(d.entries[sys])
}

// NewHandle issues a read handle over the shared data. Handles are cheap;
// each resolver owns one.
func (d *Dataset) NewHandle() *Handle {
	return &Handle{data: d}
}
