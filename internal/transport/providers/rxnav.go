package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
)

// RxNav queries the NLM RxNav drug name API for RxNorm concepts.
type RxNav struct {
	baseURL string
	maxList int
	client  *http.Client
	logger  *zap.Logger
}

// RxNavConfig holds the RxNav client settings.
type RxNavConfig struct {
	BaseURL string
	MaxList int
	Client  *http.Client
	Logger  *zap.Logger
}

// NewRxNav creates an RxNav provider.
func NewRxNav(cfg *RxNavConfig) *RxNav {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://rxnav.nlm.nih.gov"
	}
	maxList := cfg.MaxList
	if maxList <= 0 {
		maxList = 10
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &RxNav{baseURL: baseURL, maxList: maxList, client: client, logger: cfg.Logger}
}

// Name identifies the provider in logs and metrics.
func (r *RxNav) Name() string { return "rxnav" }

// rxnavResponse mirrors the /REST/drugs.json payload shape.
type rxnavResponse struct {
	DrugGroup struct {
		ConceptGroup []struct {
			ConceptProperties []struct {
				RxCUI string `json:"rxcui"`
				Name  string `json:"name"`
			} `json:"conceptProperties"`
		} `json:"conceptGroup"`
	} `json:"drugGroup"`
}

// Lookup implements Provider.
func (r *RxNav) Lookup(ctx context.Context, term domain.Term) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("name", term.Text)
	u := fmt.Sprintf("%s/REST/drugs.json?%s", r.baseURL, q.Encode())

	var payload rxnavResponse
	if err := getJSON(ctx, r.client, u, &payload); err != nil {
		return nil, fmt.Errorf("rxnav: %w", err)
	}

	var candidates []domain.Candidate
	seen := make(map[string]bool)
	for _, group := range payload.DrugGroup.ConceptGroup {
		for _, cp := range group.ConceptProperties {
			if cp.RxCUI == "" || seen[cp.RxCUI] {
				continue
			}
			seen[cp.RxCUI] = true
			candidates = append(candidates, domain.Candidate{
				Code:    cp.RxCUI,
				Display: cp.Name,
				System:  domain.SystemRxNorm,
				Source:  domain.SourceRemote,
			})
			if len(candidates) >= r.maxList {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}
