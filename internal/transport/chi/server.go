// Package chi exposes the resolution pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimux "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/job"
	batchuc "github.com/corvid-health/termmap/internal/usecase/batch"
	extractuc "github.com/corvid-health/termmap/internal/usecase/extract"
	healthuc "github.com/corvid-health/termmap/internal/usecase/health"
	"github.com/corvid-health/termmap/internal/usecase/resolve"
)

// Error codes returned in the error response body.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeValidationFailed   = "validation_failed"
	codeJobNotFound        = "job_not_found"
	codeJobNotReady        = "job_not_ready"
	codeJobFailed          = "job_failed"
	codeSourceUnavailable  = "source_unavailable"
	codeServiceUnavailable = "service_unavailable"
	codeInternalError      = "internal_error"
)

// ResolverPool hands out resolvers for synchronous map requests.
type ResolverPool interface {
	Acquire(ctx context.Context) (*resolve.Resolver, error)
	Release(r *resolve.Resolver)
}

// DatasetCounter reports local vocabulary sizes for the systems listing.
type DatasetCounter interface {
	Count(system domain.System) int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the terminology API.
type Server struct {
	pool          ResolverPool
	batch         *batchuc.Scheduler
	extract       *extractuc.Service
	health        *healthuc.Service
	dataset       DatasetCounter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pool ResolverPool,
	batch *batchuc.Scheduler,
	extract *extractuc.Service,
	health *healthuc.Service,
	dataset DatasetCounter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pool:    pool,
		batch:   batch,
		extract: extract,
		health:  health,
		dataset: dataset,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyTerm, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidSystem, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound, codeJobNotFound),
		sentinelHandler(domain.ErrJobNotReady, http.StatusConflict, codeJobNotReady),
		sentinelHandler(domain.ErrJobFailed, http.StatusConflict, codeJobFailed),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusBadGateway, codeSourceUnavailable),
		sentinelHandler(domain.ErrPoolClosed, http.StatusServiceUnavailable, codeServiceUnavailable),
	}
	return s
}

// Routes declares all API routes on a fresh router.
func (s *Server) Routes() chimux.Router {
	r := chimux.NewRouter()

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chimux.Router) {
		r.Post("/map", s.MapTerm)
		r.Post("/extract", s.ExtractAndMap)
		r.Post("/batch", s.SubmitBatch)
		r.Get("/batch/status/{jobID}", s.BatchStatus)
		r.Get("/batch/result/{jobID}", s.BatchResult)
		r.Get("/systems", s.ListSystems)
	})

	return r
}

// --- Request/response shapes ---

type mapRequest struct {
	Term    string   `json:"term"`
	Systems []string `json:"systems,omitempty"`
	Context string   `json:"context,omitempty"`
}

type mappingDTO struct {
	Code       string  `json:"code"`
	Display    string  `json:"display"`
	System     string  `json:"system"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
}

type mapResponse struct {
	Term          string                  `json:"term"`
	Mappings      map[string][]mappingDTO `json:"mappings"`
	TotalMappings int                     `json:"total_mappings"`
}

type extractRequest struct {
	Text    string   `json:"text"`
	Systems []string `json:"systems,omitempty"`
}

type extractedTermDTO struct {
	Text       string  `json:"text"`
	EntityType string  `json:"entity_type"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

type extractResponse struct {
	AIEnabled      bool                   `json:"ai_enabled"`
	ExtractedTerms []extractedTermDTO     `json:"extracted_terms"`
	MappedTerms    map[string]mapResponse `json:"mapped_terms"`
}

type batchRequest struct {
	Terms   []string `json:"terms"`
	Systems []string `json:"systems,omitempty"`
}

type batchSubmitResponse struct {
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	TotalTerms int       `json:"total_terms"`
	CreatedAt  time.Time `json:"created_at"`
}

type batchStatusResponse struct {
	JobID          string    `json:"job_id"`
	Status         string    `json:"status"`
	TotalTerms     int       `json:"total_terms"`
	ProcessedTerms int       `json:"processed_terms"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type batchResultResponse struct {
	JobID   string        `json:"job_id"`
	Status  string        `json:"status"`
	Results []mapResponse `json:"results"`
}

type systemInfo struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Entries int    `json:"entries"`
}

type systemsResponse struct {
	Systems []systemInfo `json:"systems"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Handlers ---

// MapTerm handles POST /api/v1/map.
func (s *Server) MapTerm(w http.ResponseWriter, r *http.Request) {
	var req mapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	systems, err := domain.ParseSystems(req.Systems)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resolver, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	defer s.pool.Release(resolver)

	result, err := resolver.Resolve(r.Context(), domain.Term{Text: req.Term, Context: req.Context}, systems)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToDTO(result))
}

// ExtractAndMap handles POST /api/v1/extract.
func (s *Server) ExtractAndMap(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	systems, err := domain.ParseSystems(req.Systems)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.extract.ExtractAndMap(r.Context(), req.Text, systems)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := extractResponse{
		AIEnabled:      res.AIEnabled,
		ExtractedTerms: make([]extractedTermDTO, len(res.ExtractedTerms)),
		MappedTerms:    make(map[string]mapResponse, len(res.MappedTerms)),
	}
	for i, t := range res.ExtractedTerms {
		resp.ExtractedTerms[i] = extractedTermDTO{
			Text:       t.Text,
			EntityType: t.EntityType,
			Confidence: t.Confidence,
			Start:      t.Start,
			End:        t.End,
		}
	}
	for term, mapped := range res.MappedTerms {
		resp.MappedTerms[term] = resultToDTO(mapped)
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubmitBatch handles POST /api/v1/batch.
func (s *Server) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	systems, err := domain.ParseSystems(req.Systems)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	j, err := s.batch.Submit(r.Context(), req.Terms, systems)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, batchSubmitResponse{
		JobID:      j.ID,
		Status:     string(j.Status),
		TotalTerms: j.TotalTerms,
		CreatedAt:  j.CreatedAt,
	})
}

// BatchStatus handles GET /api/v1/batch/status/{jobID}.
func (s *Server) BatchStatus(w http.ResponseWriter, r *http.Request) {
	j, err := s.batch.Status(r.Context(), chimux.URLParam(r, "jobID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, batchStatusResponse{
		JobID:          j.ID,
		Status:         string(j.Status),
		TotalTerms:     j.TotalTerms,
		ProcessedTerms: j.ProcessedTerms,
		Error:          j.Error,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	})
}

// BatchResult handles GET /api/v1/batch/result/{jobID}.
func (s *Server) BatchResult(w http.ResponseWriter, r *http.Request) {
	j, err := s.batch.Result(r.Context(), chimux.URLParam(r, "jobID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := batchResultResponse{
		JobID:   j.ID,
		Status:  string(job.StatusCompleted),
		Results: make([]mapResponse, len(j.Results)),
	}
	for i, res := range j.Results {
		resp.Results[i] = resultToDTO(res)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListSystems handles GET /api/v1/systems.
func (s *Server) ListSystems(w http.ResponseWriter, _ *http.Request) {
	all := domain.AllSystems()
	resp := systemsResponse{Systems: make([]systemInfo, len(all))}
	for i, sys := range all {
		resp.Systems[i] = systemInfo{
			Name:    string(sys),
			URI:     sys.URI(),
			Entries: s.dataset.Count(sys),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

func resultToDTO(res domain.ResolutionResult) mapResponse {
	mappings := make(map[string][]mappingDTO, len(res.Mappings))
	for sys, ms := range res.Mappings {
		out := make([]mappingDTO, len(ms))
		for i, m := range ms {
			out[i] = mappingDTO{
				Code:       m.Code,
				Display:    m.Display,
				System:     string(m.System),
				Confidence: m.Confidence,
				MatchType:  string(m.MatchType),
			}
		}
		mappings[string(sys)] = out
	}
	return mapResponse{
		Term:          res.Term,
		Mappings:      mappings,
		TotalMappings: res.TotalMappings(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyTerm,
		domain.ErrInvalidSystem,
		domain.ErrJobNotFound,
		domain.ErrJobNotReady,
		domain.ErrJobFailed,
		domain.ErrSourceUnavailable,
		domain.ErrPoolClosed,
		domain.ErrExtractorUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
