package termmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8090"

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Client talks to a running termmap service over HTTP.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// New creates a Client. Without options it targets http://localhost:8090
// with a 30 second request timeout and no authentication.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		baseURL:    defaultBaseURL,
		httpClient: defaultHTTPClient,
		userAgent:  "termmap-go",
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	u, err := url.Parse(cfg.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", cfg.baseURL)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.baseURL, "/"),
		apiKey:     cfg.apiKey,
		httpClient: cfg.httpClient,
		userAgent:  cfg.userAgent,
	}, nil
}

// MapTerm resolves a single clinical term. With no systems given the
// service searches all supported coding systems.
func (c *Client) MapTerm(ctx context.Context, term string, systems ...string) (MapResult, error) {
	req := struct {
		Term    string   `json:"term"`
		Systems []string `json:"systems,omitempty"`
	}{Term: term, Systems: systems}

	var res MapResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/map", req, &res); err != nil {
		return MapResult{}, err
	}
	return res, nil
}

// ExtractAndMap pulls clinical terms out of free text and maps each one.
func (c *Client) ExtractAndMap(ctx context.Context, text string, systems ...string) (ExtractResult, error) {
	req := struct {
		Text    string   `json:"text"`
		Systems []string `json:"systems,omitempty"`
	}{Text: text, Systems: systems}

	var res ExtractResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/extract", req, &res); err != nil {
		return ExtractResult{}, err
	}
	return res, nil
}

// SubmitBatch schedules asynchronous resolution of a list of terms and
// returns the accepted job. Poll with BatchStatus or use WaitForJob.
func (c *Client) SubmitBatch(ctx context.Context, terms []string, systems ...string) (BatchJob, error) {
	req := struct {
		Terms   []string `json:"terms"`
		Systems []string `json:"systems,omitempty"`
	}{Terms: terms, Systems: systems}

	var res BatchJob
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/batch", req, &res); err != nil {
		return BatchJob{}, err
	}
	return res, nil
}

// BatchStatus reports progress of a batch job.
func (c *Client) BatchStatus(ctx context.Context, jobID string) (BatchJob, error) {
	var res BatchJob
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/batch/status/"+url.PathEscape(jobID), nil, &res); err != nil {
		return BatchJob{}, err
	}
	return res, nil
}

// BatchResult fetches the per-term results of a completed job.
// Returns ErrJobNotReady while the job is still running and ErrJobFailed
// when it ended in error.
func (c *Client) BatchResult(ctx context.Context, jobID string) (BatchResult, error) {
	var res BatchResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/batch/result/"+url.PathEscape(jobID), nil, &res); err != nil {
		return BatchResult{}, err
	}
	return res, nil
}

// WaitForJob polls BatchStatus every interval until the job reaches a
// terminal state or ctx is done. A failed job is returned together with
// ErrJobFailed so callers see the final counters.
func (c *Client) WaitForJob(ctx context.Context, jobID string, interval time.Duration) (BatchJob, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.BatchStatus(ctx, jobID)
		if err != nil {
			return BatchJob{}, err
		}
		switch job.Status {
		case JobCompleted:
			return job, nil
		case JobFailed:
			return job, fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
		}

		select {
		case <-ctx.Done():
			return BatchJob{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Systems lists the coding systems the service resolves against.
func (c *Client) Systems(ctx context.Context) ([]SystemInfo, error) {
	var res struct {
		Systems []SystemInfo `json:"systems"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/systems", nil, &res); err != nil {
		return nil, err
	}
	return res.Systems, nil
}

// Healthy reports whether the service responds OK on its health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, apiErr) == nil && apiErr.Code != "" {
		return apiErr
	}
	apiErr.Code = "unexpected_response"
	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
