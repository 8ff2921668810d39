package similarity

import (
	"testing"
)

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestExpandQuery_QueryAlwaysFirst(t *testing.T) {
	for _, q := range []string{"htn", "hypertension", "zzqx"} {
		got := ExpandQuery(q)
		if len(got) == 0 || got[0] != q {
			t.Errorf("ExpandQuery(%q) = %v, want query first", q, got)
		}
	}
}

func TestExpandQuery_Abbreviation(t *testing.T) {
	got := ExpandQuery("htn")
	if !contains(got, "hypertension") || !contains(got, "high blood pressure") {
		t.Fatalf("ExpandQuery(htn) = %v, want both expansions", got)
	}
}

func TestExpandQuery_ReverseAbbreviation(t *testing.T) {
	got := ExpandQuery("heart attack")
	if !contains(got, "mi") {
		t.Fatalf("ExpandQuery(heart attack) = %v, want the abbreviation", got)
	}
}

func TestExpandQuery_PrefixStripping(t *testing.T) {
	got := ExpandQuery("chronic migraine")
	if !contains(got, "migraine") {
		t.Fatalf("ExpandQuery(chronic migraine) = %v, want stripped form", got)
	}
}

func TestExpandQuery_NoDuplicates(t *testing.T) {
	got := ExpandQuery("hemoglobin a1c")
	seen := make(map[string]bool)
	for _, v := range got {
		if seen[v] {
			t.Fatalf("duplicate variant %q in %v", v, got)
		}
		seen[v] = true
	}
}
