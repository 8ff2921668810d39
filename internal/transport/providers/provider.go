// Package providers implements the remote vocabulary lookup clients and
// the ordered fallback chain that tries them.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/metrics"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 5 * time.Second

// Provider performs one remote vocabulary lookup. Implementations are
// bound to a single vocabulary system at construction.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, term domain.Term) ([]domain.Candidate, error)
}

// Chain tries providers in order with a per-call timeout, returning the
// first provider's results. An empty-but-successful response wins; only
// failure (timeout, transport error, malformed payload) falls through to
// the next provider.
type Chain struct {
	system  domain.System
	chain   []Provider
	timeout time.Duration
	logger  *zap.Logger
}

// NewChain creates a provider chain for one vocabulary system.
func NewChain(system domain.System, timeout time.Duration, logger *zap.Logger, provs ...Provider) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chain{system: system, chain: provs, timeout: timeout, logger: logger}
}

// Lookup implements the remote stage of the resolution pipeline.
func (c *Chain) Lookup(ctx context.Context, term domain.Term) ([]domain.Candidate, error) {
	var lastErr error
	for _, p := range c.chain {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		cands, err := p.Lookup(callCtx, term)
		cancel()
		duration := time.Since(start)

		if err != nil {
			metrics.LookupRequestsTotal.WithLabelValues(string(c.system), p.Name(), "error").Inc()
			metrics.LookupErrorsTotal.WithLabelValues(string(c.system), p.Name(), errorType(err)).Inc()
			c.logger.Warn("provider lookup failed",
				zap.String("system", string(c.system)),
				zap.String("provider", p.Name()),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		metrics.LookupRequestsTotal.WithLabelValues(string(c.system), p.Name(), "success").Inc()
		metrics.LookupRequestDuration.WithLabelValues(string(c.system), p.Name()).Observe(duration.Seconds())
		return cands, nil
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%s: no providers configured: %w", c.system, domain.ErrSourceUnavailable)
	}
	return nil, fmt.Errorf("%s: %w: %w", c.system, domain.ErrSourceUnavailable, lastErr)
}

// errorType buckets an error for the error metric label.
func errorType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "api_error"
}

// getJSON issues a GET, enforces a 2xx status, and decodes the body into v.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
