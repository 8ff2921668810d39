package termmap

import "time"

// Mapping is a single coding-system match for a term.
type Mapping struct {
	Code       string  `json:"code"`
	Display    string  `json:"display"`
	System     string  `json:"system"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
}

// MapResult holds the mappings for one resolved term, keyed by system name.
type MapResult struct {
	Term          string               `json:"term"`
	Mappings      map[string][]Mapping `json:"mappings"`
	TotalMappings int                  `json:"total_mappings"`
}

// ExtractedTerm is a clinical term located in free text.
type ExtractedTerm struct {
	Text       string  `json:"text"`
	EntityType string  `json:"entity_type"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// ExtractResult is the outcome of extracting and mapping terms from free text.
type ExtractResult struct {
	AIEnabled      bool                 `json:"ai_enabled"`
	ExtractedTerms []ExtractedTerm      `json:"extracted_terms"`
	MappedTerms    map[string]MapResult `json:"mapped_terms"`
}

// BatchJob is the status snapshot of an asynchronous batch job.
type BatchJob struct {
	JobID          string    `json:"job_id"`
	Status         string    `json:"status"`
	TotalTerms     int       `json:"total_terms"`
	ProcessedTerms int       `json:"processed_terms"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BatchResult carries the per-term results of a completed batch job.
type BatchResult struct {
	JobID   string      `json:"job_id"`
	Status  string      `json:"status"`
	Results []MapResult `json:"results"`
}

// Batch job status values as reported by the service.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// SystemInfo describes one supported coding system.
type SystemInfo struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Entries int    `json:"entries"`
}
