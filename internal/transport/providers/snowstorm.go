package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
)

// Snowstorm queries a SNOMED CT terminology server's description search
// (the public browser at browser.ihtsdotools.org runs one).
type Snowstorm struct {
	baseURL string
	branch  string
	maxList int
	client  *http.Client
	logger  *zap.Logger
}

// SnowstormConfig holds the Snowstorm client settings.
type SnowstormConfig struct {
	BaseURL string
	Branch  string
	MaxList int
	Client  *http.Client
	Logger  *zap.Logger
}

// NewSnowstorm creates a Snowstorm provider.
func NewSnowstorm(cfg *SnowstormConfig) *Snowstorm {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://browser.ihtsdotools.org/snowstorm/snomed-ct"
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "MAIN"
	}
	maxList := cfg.MaxList
	if maxList <= 0 {
		maxList = 10
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Snowstorm{
		baseURL: baseURL,
		branch:  branch,
		maxList: maxList,
		client:  client,
		logger:  cfg.Logger,
	}
}

// Name identifies the provider in logs and metrics.
func (s *Snowstorm) Name() string { return "snowstorm" }

// snowstormResponse mirrors the browser description search payload.
type snowstormResponse struct {
	Items []struct {
		Term    string `json:"term"`
		Concept struct {
			ConceptID string `json:"conceptId"`
			PT        struct {
				Term string `json:"term"`
			} `json:"pt"`
		} `json:"concept"`
	} `json:"items"`
}

// Lookup implements Provider.
func (s *Snowstorm) Lookup(ctx context.Context, term domain.Term) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("term", term.Text)
	q.Set("active", "true")
	q.Set("conceptActive", "true")
	q.Set("groupByConcept", "true")
	q.Set("limit", strconv.Itoa(s.maxList))
	u := fmt.Sprintf("%s/browser/%s/descriptions?%s", s.baseURL, s.branch, q.Encode())

	var payload snowstormResponse
	if err := getJSON(ctx, s.client, u, &payload); err != nil {
		return nil, fmt.Errorf("snowstorm: %w", err)
	}

	var candidates []domain.Candidate
	seen := make(map[string]bool)
	for _, item := range payload.Items {
		id := item.Concept.ConceptID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		display := item.Concept.PT.Term
		if display == "" {
			display = item.Term
		}
		candidates = append(candidates, domain.Candidate{
			Code:    id,
			Display: display,
			System:  domain.SystemSNOMED,
			Source:  domain.SourceRemote,
		})
	}
	return candidates, nil
}
