package similarity

import "strings"

// abbreviations maps common clinical shorthand to its expansions. Both
// the exact-lookup pass and the scorer expand queries through this table,
// so an abbreviation hit carries full confidence.
var abbreviations = map[string][]string{
	"mi":     {"myocardial infarction", "heart attack"},
	"htn":    {"hypertension", "high blood pressure"},
	"dm":     {"diabetes mellitus"},
	"t2dm":   {"type 2 diabetes mellitus", "diabetes type 2"},
	"copd":   {"chronic obstructive pulmonary disease"},
	"chf":    {"congestive heart failure", "heart failure"},
	"cad":    {"coronary artery disease"},
	"cva":    {"cerebrovascular accident", "stroke"},
	"uti":    {"urinary tract infection"},
	"gerd":   {"gastroesophageal reflux disease", "acid reflux"},
	"ra":     {"rheumatoid arthritis"},
	"oa":     {"osteoarthritis"},
	"ckd":    {"chronic kidney disease"},
	"hld":    {"hyperlipidemia", "high cholesterol"},
	"bph":    {"benign prostatic hyperplasia", "enlarged prostate"},
	"dvt":    {"deep vein thrombosis"},
	"pe":     {"pulmonary embolism"},
	"adhd":   {"attention deficit hyperactivity disorder"},
	"ibd":    {"inflammatory bowel disease"},
	"ibs":    {"irritable bowel syndrome"},
	"sob":    {"shortness of breath"},
	"bp":     {"blood pressure"},
	"hba1c":  {"hemoglobin a1c", "glycated hemoglobin"},
	"hb a1c": {"hemoglobin a1c", "glycated hemoglobin"},
}

// strippablePrefixes are qualifiers dropped to produce lookup variants.
var strippablePrefixes = []string{
	"history of ",
	"chronic ",
	"acute ",
	"suspected ",
	"possible ",
	"recurrent ",
}

// ExpandQuery generates lookup variants for a normalized query: the query
// itself, abbreviation expansions both ways, and prefix-stripped forms.
// Order matters; the unmodified query is always first.
func ExpandQuery(q string) []string {
	variants := []string{q}
	seen := map[string]bool{q: true}

	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	for _, exp := range abbreviations[q] {
		add(exp)
	}
	for abbrev, expansions := range abbreviations {
		for _, exp := range expansions {
			if q == exp {
				add(abbrev)
			}
		}
	}

	for _, prefix := range strippablePrefixes {
		if rest, ok := strings.CutPrefix(q, prefix); ok {
			add(rest)
		}
	}

	return variants
}
