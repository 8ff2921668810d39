package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		resp := map[string]any{
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestExtractor(serverURL string) *Extractor {
	return NewExtractor(&Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestExtractorParsesPayload(t *testing.T) {
	payload := `{"terms":[{"text":"chest pain","entity_type":"symptom","confidence":0.95},{"text":"metformin","entity_type":"medication","confidence":0.9}]}`
	server := completionServer(t, payload)
	defer server.Close()

	text := "Patient reports chest pain, currently on Metformin."
	terms, err := newTestExtractor(server.URL).Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %v", terms)
	}
	if terms[0].Text != "chest pain" || terms[0].EntityType != "symptom" {
		t.Fatalf("unexpected first term: %+v", terms[0])
	}
	if text[terms[0].Start:terms[0].End] != "chest pain" {
		t.Fatalf("offsets do not point at the span: %q", text[terms[0].Start:terms[0].End])
	}
	// Span text preserves the casing found in the input.
	if terms[1].Text != "Metformin" {
		t.Fatalf("expected source casing, got %q", terms[1].Text)
	}
}

func TestExtractorDropsInventedSpans(t *testing.T) {
	payload := `{"terms":[{"text":"sepsis","entity_type":"condition","confidence":0.8}]}`
	server := completionServer(t, payload)
	defer server.Close()

	terms, err := newTestExtractor(server.URL).Extract(context.Background(), "unremarkable note")
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 0 {
		t.Fatalf("expected invented span dropped, got %v", terms)
	}
}

func TestExtractorHandlesCodeFence(t *testing.T) {
	payload := "```json\n{\"terms\":[{\"text\":\"asthma\",\"entity_type\":\"condition\",\"confidence\":0.9}]}\n```"
	server := completionServer(t, payload)
	defer server.Close()

	terms, err := newTestExtractor(server.URL).Extract(context.Background(), "history of asthma")
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 1 || terms[0].Text != "asthma" {
		t.Fatalf("expected asthma extracted, got %v", terms)
	}
}

func TestExtractorGarbagePayload(t *testing.T) {
	server := completionServer(t, "sorry, I cannot do that")
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "asthma")
	if !errors.Is(err, domain.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
}

func TestExtractorAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "asthma")
	if !errors.Is(err, domain.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                     `{"a":1}`,
		"```json\n{\"a\":1}\n```":     `{"a":1}`,
		"```\n{\"a\":1}\n```":         `{"a":1}`,
		"  {\"a\":1}  ":               `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
