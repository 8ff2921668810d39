package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseSystems(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []System
	}{
		{"empty expands to all", nil, AllSystems()},
		{"all keyword", []string{"all"}, AllSystems()},
		{"single", []string{"loinc"}, []System{SystemLOINC}},
		{"case and whitespace", []string{" SNOMED ", "RxNorm"}, []System{SystemSNOMED, SystemRxNorm}},
		{"duplicates collapse", []string{"snomed", "snomed", "loinc"}, []System{SystemSNOMED, SystemLOINC}},
		{"all wins mid-list", []string{"loinc", "all"}, AllSystems()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSystems(tt.tags)
			if err != nil {
				t.Fatalf("ParseSystems(%v): %v", tt.tags, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSystems(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestParseSystemsRejectsUnknown(t *testing.T) {
	_, err := ParseSystems([]string{"snomed", "icd10"})
	if !errors.Is(err, ErrInvalidSystem) {
		t.Fatalf("err = %v, want ErrInvalidSystem", err)
	}
}

func TestSystemURIs(t *testing.T) {
	for _, sys := range AllSystems() {
		if sys.URI() == "" {
			t.Errorf("%s has no URI", sys)
		}
	}
	if got := System("icd10").URI(); got != "" {
		t.Errorf("unknown system URI = %q, want empty", got)
	}
}

func TestResolutionResultCounts(t *testing.T) {
	r := NewResolutionResult("glucose", AllSystems())
	if r.TotalMappings() != 0 {
		t.Fatalf("fresh result TotalMappings = %d", r.TotalMappings())
	}
	for _, sys := range AllSystems() {
		if r.Mappings[sys] == nil {
			t.Errorf("system %s list is nil, want empty", sys)
		}
	}

	r.Mappings[SystemLOINC] = append(r.Mappings[SystemLOINC],
		Mapping{Code: "2345-7", System: SystemLOINC, Confidence: 1.0, MatchType: MatchExact})
	r.Mappings[SystemSNOMED] = append(r.Mappings[SystemSNOMED],
		Mapping{Code: "33747003", System: SystemSNOMED, Confidence: 0.9, MatchType: MatchFuzzy})

	if r.TotalMappings() != 2 {
		t.Errorf("TotalMappings = %d, want 2", r.TotalMappings())
	}
}
