package termmap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New(WithBaseURL("://nope")); err == nil {
		t.Fatal("expected error for unparsable base url")
	}
	if _, err := New(WithBaseURL("ftp://example.com")); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestMapTermSendsRequestAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/map" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		var req struct {
			Term    string   `json:"term"`
			Systems []string `json:"systems"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Term != "hypertension" {
			t.Errorf("term = %q", req.Term)
		}
		if len(req.Systems) != 1 || req.Systems[0] != "snomed" {
			t.Errorf("systems = %v", req.Systems)
		}

		json.NewEncoder(w).Encode(MapResult{
			Term: "hypertension",
			Mappings: map[string][]Mapping{
				"snomed": {{Code: "38341003", Display: "Hypertension", System: "snomed", Confidence: 1.0, MatchType: "exact"}},
			},
			TotalMappings: 1,
		})
	}))
	defer srv.Close()

	client, err := New(WithBaseURL(srv.URL), WithAPIKey("secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := client.MapTerm(context.Background(), "hypertension", "snomed")
	if err != nil {
		t.Fatalf("MapTerm: %v", err)
	}
	if res.TotalMappings != 1 {
		t.Fatalf("TotalMappings = %d, want 1", res.TotalMappings)
	}
	got := res.Mappings["snomed"][0]
	if got.Code != "38341003" || got.MatchType != "exact" {
		t.Errorf("mapping = %+v", got)
	}
}

func TestAPIErrorMapsToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"validation", http.StatusBadRequest, "validation_failed", ErrValidation},
		{"unauthorized", http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{"not found", http.StatusNotFound, "job_not_found", ErrJobNotFound},
		{"not ready", http.StatusConflict, "job_not_ready", ErrJobNotReady},
		{"failed", http.StatusConflict, "job_failed", ErrJobFailed},
		{"source down", http.StatusBadGateway, "source_unavailable", ErrSourceUnavailable},
		{"shutting down", http.StatusServiceUnavailable, "service_unavailable", ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"code": tt.code, "message": "boom"})
			}))
			defer srv.Close()

			client, _ := New(WithBaseURL(srv.URL))
			_, err := client.BatchResult(context.Background(), "j1")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Code != tt.code {
				t.Errorf("apiErr = %+v", apiErr)
			}
		})
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream proxy melted", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := New(WithBaseURL(srv.URL))
	_, err := client.MapTerm(context.Background(), "glucose")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not *APIError", err)
	}
	if apiErr.Code != "unexpected_response" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if apiErr.Message != "upstream proxy melted" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestWaitForJobPollsUntilCompleted(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/batch/status/j1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		job := BatchJob{JobID: "j1", Status: JobProcessing, TotalTerms: 4, ProcessedTerms: 2}
		if polls.Add(1) >= 3 {
			job.Status = JobCompleted
			job.ProcessedTerms = 4
		}
		json.NewEncoder(w).Encode(job)
	}))
	defer srv.Close()

	client, _ := New(WithBaseURL(srv.URL))
	job, err := client.WaitForJob(context.Background(), "j1", 5*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForJob: %v", err)
	}
	if job.Status != JobCompleted || job.ProcessedTerms != 4 {
		t.Errorf("job = %+v", job)
	}
	if polls.Load() < 3 {
		t.Errorf("polls = %d, want at least 3", polls.Load())
	}
}

func TestWaitForJobSurfacesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(BatchJob{JobID: "j2", Status: JobFailed, Error: "worker panic"})
	}))
	defer srv.Close()

	client, _ := New(WithBaseURL(srv.URL))
	job, err := client.WaitForJob(context.Background(), "j2", time.Millisecond)
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("err = %v, want ErrJobFailed", err)
	}
	if job.Error != "worker panic" {
		t.Errorf("job.Error = %q", job.Error)
	}
}

func TestWaitForJobHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(BatchJob{JobID: "j3", Status: JobProcessing})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	client, _ := New(WithBaseURL(srv.URL))
	_, err := client.WaitForJob(ctx, "j3", 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestSystems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/systems" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string][]SystemInfo{
			"systems": {
				{Name: "snomed", URI: "http://snomed.info/sct", Entries: 100},
				{Name: "loinc", URI: "http://loinc.org", Entries: 50},
			},
		})
	}))
	defer srv.Close()

	client, _ := New(WithBaseURL(srv.URL))
	systems, err := client.Systems(context.Background())
	if err != nil {
		t.Fatalf("Systems: %v", err)
	}
	if len(systems) != 2 || systems[0].Name != "snomed" {
		t.Errorf("systems = %+v", systems)
	}
}
