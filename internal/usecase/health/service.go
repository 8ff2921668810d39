package health

import (
	"context"

	"github.com/corvid-health/termmap/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	dataset   DatasetCounter
	db        DBPinger
	extractor ExtractorChecker
}

// New creates a Service. db and extractor can be nil when the deployment
// runs without a durable registry or an extraction model.
func New(dataset DatasetCounter, db DBPinger, extractor ExtractorChecker) *Service {
	return &Service{dataset: dataset, db: db, extractor: extractor}
}

// Check runs health checks against all configured components. The
// embedded dataset is the one mandatory dependency.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["dataset"] = CheckOK
	for _, sys := range domain.AllSystems() {
		if s.dataset.Count(sys) == 0 {
			checks["dataset"] = CheckError
			break
		}
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["jobstore"] = CheckError
		} else {
			checks["jobstore"] = CheckOK
		}
	}

	if s.extractor != nil {
		if err := s.extractor.HealthCheck(ctx); err != nil {
			checks["extractor"] = CheckError
		} else {
			checks["extractor"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
