package termmap

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes.
// Use errors.Is() to check.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrJobNotFound       = errors.New("job not found")
	ErrJobNotReady       = errors.New("job not ready")
	ErrJobFailed         = errors.New("job failed")
	ErrSourceUnavailable = errors.New("terminology source unavailable")
	ErrUnavailable       = errors.New("service unavailable")
)

// APIError is the decoded error body of a non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("termmap: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Is maps API error codes onto the package sentinels so callers can use
// errors.Is without inspecting codes themselves.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == "validation_failed" || e.Code == "bad_request"
	case ErrUnauthorized:
		return e.Code == "unauthorized"
	case ErrJobNotFound:
		return e.Code == "job_not_found"
	case ErrJobNotReady:
		return e.Code == "job_not_ready"
	case ErrJobFailed:
		return e.Code == "job_failed"
	case ErrSourceUnavailable:
		return e.Code == "source_unavailable"
	case ErrUnavailable:
		return e.Code == "service_unavailable"
	}
	return false
}
