package domain

import "errors"

var (
	// ErrEmptyTerm signals a blank input term.
	ErrEmptyTerm = errors.New("empty term")
	// ErrInvalidSystem signals an unknown vocabulary system tag.
	ErrInvalidSystem = errors.New("unknown vocabulary system")
	// ErrSourceUnavailable signals that every provider in a remote chain failed.
	ErrSourceUnavailable = errors.New("vocabulary source unavailable")
	// ErrJobNotFound signals an unknown batch job identifier.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotReady signals a batch job that has not completed yet.
	ErrJobNotReady = errors.New("job not ready")
	// ErrJobFailed signals a batch job abandoned after an uncaught fault.
	ErrJobFailed = errors.New("job failed")
	// ErrPoolClosed signals an acquire against a closed resolver pool.
	ErrPoolClosed = errors.New("resolver pool closed")
	// ErrExtractorUnavailable signals a term extraction provider failure.
	ErrExtractorUnavailable = errors.New("term extractor unavailable")
)
