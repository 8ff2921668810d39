package health

import (
	"context"

	"github.com/corvid-health/termmap/internal/domain"
)

// DatasetCounter reports how many entries a vocabulary system carries.
type DatasetCounter interface {
	Count(system domain.System) int
}

// DBPinger checks job store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ExtractorChecker checks extraction model availability.
type ExtractorChecker interface {
	HealthCheck(ctx context.Context) error
}
