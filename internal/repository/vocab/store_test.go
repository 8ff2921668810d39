package vocab

import (
	"testing"

	"github.com/corvid-health/termmap/internal/domain"
)

func loadDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return d
}

func TestLoad_AllSystemsPopulated(t *testing.T) {
	d := loadDataset(t)
	for _, sys := range domain.AllSystems() {
		if d.Count(sys) == 0 {
			t.Errorf("no entries loaded for %s", sys)
		}
	}
}

func TestExactLookup(t *testing.T) {
	h := loadDataset(t).NewHandle()

	got := h.ExactOrSubstring("Hypertension", domain.SystemSNOMED)
	if len(got) != 1 {
		t.Fatalf("want 1 exact candidate, got %d", len(got))
	}
	if got[0].Code != "38341003" {
		t.Errorf("want code 38341003, got %s", got[0].Code)
	}
	if got[0].Source != domain.SourceLocal {
		t.Errorf("want local source, got %s", got[0].Source)
	}
}

func TestExactLookup_AbbreviationExpansion(t *testing.T) {
	h := loadDataset(t).NewHandle()

	got := h.ExactOrSubstring("COPD", domain.SystemSNOMED)
	if len(got) != 1 {
		t.Fatalf("want 1 candidate for abbreviation, got %d", len(got))
	}
	if got[0].Code != "13645005" {
		t.Errorf("want COPD code 13645005, got %s", got[0].Code)
	}
}

func TestExactLookup_PrefixStripping(t *testing.T) {
	h := loadDataset(t).NewHandle()

	got := h.ExactOrSubstring("history of asthma", domain.SystemSNOMED)
	if len(got) != 1 {
		t.Fatalf("want 1 candidate after prefix strip, got %d", len(got))
	}
	if got[0].Code != "195967001" {
		t.Errorf("want asthma code, got %s", got[0].Code)
	}
}

func TestSubstringLookup(t *testing.T) {
	h := loadDataset(t).NewHandle()

	got := h.ExactOrSubstring("aminotransferase", domain.SystemLOINC)
	if len(got) < 2 {
		t.Fatalf("want several aminotransferase candidates, got %d", len(got))
	}
	codes := make(map[string]bool)
	for _, c := range got {
		if c.System != domain.SystemLOINC {
			t.Errorf("candidate from wrong system: %s", c.System)
		}
		if codes[c.Code] {
			t.Errorf("duplicate code %s in substring results", c.Code)
		}
		codes[c.Code] = true
	}
}

func TestSubstringLookup_ShortQuerySkipped(t *testing.T) {
	h := loadDataset(t).NewHandle()

	// "xq" matches nothing exactly and is below the substring length
	// cutoff, so the lookup yields nothing rather than half the dataset.
	if got := h.ExactOrSubstring("xq", domain.SystemRxNorm); len(got) != 0 {
		t.Fatalf("short query must not substring-match, got %d", len(got))
	}
}

func TestExactLookup_NoMatch(t *testing.T) {
	h := loadDataset(t).NewHandle()
	if got := h.ExactOrSubstring("zzzz unknown term", domain.SystemLOINC); len(got) != 0 {
		t.Fatalf("want no candidates, got %d", len(got))
	}
}

func TestAllCandidates_Isolated(t *testing.T) {
	d := loadDataset(t)
	h := d.NewHandle()

	a := h.AllCandidates(domain.SystemRxNorm)
	if len(a) != d.Count(domain.SystemRxNorm) {
		t.Fatalf("want %d candidates, got %d", d.Count(domain.SystemRxNorm), len(a))
	}

	// Mutating the returned slice must not leak into later reads.
	a[0].Display = "clobbered"
	b := h.AllCandidates(domain.SystemRxNorm)
	if b[0].Display == "clobbered" {
		t.Fatal("AllCandidates leaked shared state")
	}
}

func TestHandles_Independent(t *testing.T) {
	d := loadDataset(t)
	h1, h2 := d.NewHandle(), d.NewHandle()

	r1 := h1.ExactOrSubstring("metformin", domain.SystemRxNorm)
	r2 := h2.ExactOrSubstring("metformin", domain.SystemRxNorm)
	if len(r1) != 1 || len(r2) != 1 || r1[0].Code != r2[0].Code {
		t.Fatalf("handles disagree: %v vs %v", r1, r2)
	}
}
