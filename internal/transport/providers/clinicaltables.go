package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
)

// ClinicalTables queries the NLM Clinical Table Search Service
// (clinicaltables.nlm.nih.gov). One instance serves one table; the same
// client type backs the LOINC, RxTerms, and SNOMED CT tables.
type ClinicalTables struct {
	baseURL string
	table   string
	system  domain.System
	maxList int
	client  *http.Client
	logger  *zap.Logger
}

// ClinicalTablesConfig holds the Clinical Tables client settings.
type ClinicalTablesConfig struct {
	BaseURL string
	Table   string
	System  domain.System
	MaxList int
	Client  *http.Client
	Logger  *zap.Logger
}

// NewClinicalTables creates a Clinical Tables provider.
func NewClinicalTables(cfg *ClinicalTablesConfig) *ClinicalTables {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://clinicaltables.nlm.nih.gov"
	}
	maxList := cfg.MaxList
	if maxList <= 0 {
		maxList = 10
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &ClinicalTables{
		baseURL: baseURL,
		table:   cfg.Table,
		system:  cfg.System,
		maxList: maxList,
		client:  client,
		logger:  cfg.Logger,
	}
}

// Name identifies the provider in logs and metrics.
func (c *ClinicalTables) Name() string {
	return "clinicaltables:" + c.table
}

// Lookup implements Provider. The service answers with a positional JSON
// array: [total, codes, extra, displayRows].
func (c *ClinicalTables) Lookup(ctx context.Context, term domain.Term) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("terms", term.Text)
	q.Set("maxList", fmt.Sprintf("%d", c.maxList))
	u := fmt.Sprintf("%s/api/%s/v3/search?%s", c.baseURL, c.table, q.Encode())

	var payload []json.RawMessage
	if err := getJSON(ctx, c.client, u, &payload); err != nil {
		return nil, fmt.Errorf("clinical tables %s: %w", c.table, err)
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("clinical tables %s: malformed payload: %d elements", c.table, len(payload))
	}

	var codes []string
	if err := json.Unmarshal(payload[1], &codes); err != nil {
		return nil, fmt.Errorf("clinical tables %s: parse codes: %w", c.table, err)
	}
	var displayRows [][]string
	if err := json.Unmarshal(payload[3], &displayRows); err != nil {
		return nil, fmt.Errorf("clinical tables %s: parse displays: %w", c.table, err)
	}

	candidates := make([]domain.Candidate, 0, len(codes))
	for i, code := range codes {
		if code == "" {
			continue
		}
		display := code
		if i < len(displayRows) {
			if d := strings.TrimSpace(strings.Join(displayRows[i], " ")); d != "" {
				display = d
			}
		}
		candidates = append(candidates, domain.Candidate{
			Code:    code,
			Display: display,
			System:  c.system,
			Source:  domain.SourceRemote,
		})
	}
	return candidates, nil
}
