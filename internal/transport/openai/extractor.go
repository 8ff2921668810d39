// Package openai provides a medical term extractor backed by an
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
)

const systemPrompt = `You are a clinical NLP engine. Extract medical terms (conditions, symptoms, lab tests, medications, procedures) from the user's text.
Respond with a JSON object of the form {"terms":[{"text":"...","entity_type":"...","confidence":0.0}]}.
entity_type is one of: condition, symptom, lab, medication, procedure.
confidence is your certainty the span is a medical term, between 0 and 1.
Use the exact spans from the input. Respond with JSON only.`

// Extractor pulls medical terms out of clinical text via chat completion.
type Extractor struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Config holds the extraction model settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible extractor.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

type extractionPayload struct {
	Terms []struct {
		Text       string  `json:"text"`
		EntityType string  `json:"entity_type"`
		Confidence float64 `json:"confidence"`
	} `json:"terms"`
}

// Extract asks the model for medical term spans and locates each span
// in the source text. Spans the model invents are dropped.
func (e *Extractor) Extract(ctx context.Context, text string) ([]domain.ExtractedTerm, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response: %w", domain.ErrExtractorUnavailable)
	}

	var payload extractionPayload
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		e.logger.Warn("unparseable extraction payload", zap.String("content", content), zap.Error(err))
		return nil, fmt.Errorf("parse extraction payload: %w", domain.ErrExtractorUnavailable)
	}

	lower := strings.ToLower(text)
	terms := make([]domain.ExtractedTerm, 0, len(payload.Terms))
	seen := make(map[string]struct{}, len(payload.Terms))
	for _, t := range payload.Terms {
		span := strings.TrimSpace(t.Text)
		if span == "" {
			continue
		}
		key := strings.ToLower(span)
		if _, dup := seen[key]; dup {
			continue
		}
		start := strings.Index(lower, key)
		if start < 0 {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, domain.ExtractedTerm{
			Text:       text[start : start+len(span)],
			EntityType: t.EntityType,
			Confidence: t.Confidence,
			Start:      start,
			End:        start + len(span),
		})
	}
	return terms, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrExtractorUnavailable so callers can fall
// back to pattern extraction.
func parseAPIError(err error) error {
	wrap := domain.ErrExtractorUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("extraction request failed: %w", wrap)
}
