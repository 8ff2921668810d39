package domain

// ExtractedTerm is a medical term spotted in free clinical text. Start
// and End are byte offsets into the source text.
type ExtractedTerm struct {
	Text       string
	EntityType string
	Confidence float64
	Start      int
	End        int
}

// ExtractionResult pairs extracted terms with their vocabulary mappings,
// keyed by the extracted text.
type ExtractionResult struct {
	AIEnabled      bool
	ExtractedTerms []ExtractedTerm
	MappedTerms    map[string]ResolutionResult
}
