package health

import (
	"context"
	"errors"
	"testing"

	"github.com/corvid-health/termmap/internal/domain"
)

// --- Mocks ---

type mockDataset struct {
	counts map[domain.System]int
}

func (m *mockDataset) Count(sys domain.System) int { return m.counts[sys] }

func fullDataset() *mockDataset {
	return &mockDataset{counts: map[domain.System]int{
		domain.SystemSNOMED: 40,
		domain.SystemLOINC:  40,
		domain.SystemRxNorm: 40,
	}}
}

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockExtractorChecker struct {
	err error
}

func (m *mockExtractorChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(fullDataset(), &mockDBPinger{}, &mockExtractorChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"dataset", "jobstore", "extractor"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DatasetOnly(t *testing.T) {
	svc := New(fullDataset(), nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the dataset check, got %v", r.Checks)
	}
}

func TestCheck_EmptyDataset(t *testing.T) {
	ds := fullDataset()
	ds.counts[domain.SystemLOINC] = 0
	svc := New(ds, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["dataset"] != CheckError {
		t.Errorf("expected dataset %q, got %q", CheckError, r.Checks["dataset"])
	}
}

func TestCheck_JobStoreError(t *testing.T) {
	svc := New(fullDataset(), &mockDBPinger{err: errors.New("conn refused")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["jobstore"] != CheckError {
		t.Errorf("expected jobstore %q, got %q", CheckError, r.Checks["jobstore"])
	}
	if r.Checks["dataset"] != CheckOK {
		t.Errorf("expected dataset %q, got %q", CheckOK, r.Checks["dataset"])
	}
}

func TestCheck_ExtractorError(t *testing.T) {
	svc := New(fullDataset(), nil, &mockExtractorChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["extractor"] != CheckError {
		t.Errorf("expected extractor %q, got %q", CheckError, r.Checks["extractor"])
	}
}
