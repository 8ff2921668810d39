// Package batch schedules asynchronous multi-term resolution jobs.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/job"
	"github.com/corvid-health/termmap/internal/metrics"
)

// Scheduling defaults. Remote vocabulary services rate-limit aggressively;
// the inter-chunk delay keeps batch traffic under their radar.
const (
	DefaultChunkSize  = 5
	DefaultChunkDelay = 500 * time.Millisecond
)

// Scheduler accepts batches of terms, processes them in the background,
// and tracks their lifecycle through a Registry. Jobs never retry and
// cannot be canceled once accepted.
type Scheduler struct {
	pool       Pool
	registry   Registry
	chunkSize  int
	chunkDelay time.Duration
	logger     *zap.Logger
}

// NewScheduler creates a scheduler with default chunking.
func NewScheduler(pool Pool, registry Registry, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		pool:       pool,
		registry:   registry,
		chunkSize:  DefaultChunkSize,
		chunkDelay: DefaultChunkDelay,
		logger:     logger,
	}
}

// WithChunking overrides chunk size and inter-chunk delay.
func (s *Scheduler) WithChunking(size int, delay time.Duration) *Scheduler {
	if size > 0 {
		s.chunkSize = size
	}
	if delay >= 0 {
		s.chunkDelay = delay
	}
	return s
}

// Submit validates the batch, registers a pending job, and kicks off
// background processing. It returns immediately with the job snapshot.
// Terms that are empty after trimming are dropped; a batch with nothing
// left is rejected.
func (s *Scheduler) Submit(ctx context.Context, terms []string, systems []domain.System) (job.Job, error) {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return job.Job{}, fmt.Errorf("batch: %w", domain.ErrEmptyTerm)
	}
	if len(systems) == 0 {
		systems = domain.AllSystems()
	}
	for _, sys := range systems {
		if !sys.Valid() {
			return job.Job{}, fmt.Errorf("batch: %q: %w", sys, domain.ErrInvalidSystem)
		}
	}

	j := job.New(uuid.NewString(), len(cleaned))
	if err := s.registry.Save(ctx, j); err != nil {
		return job.Job{}, fmt.Errorf("register job: %w", err)
	}
	metrics.BatchJobsTotal.WithLabelValues(string(job.StatusPending)).Inc()

	// The job outlives the submit request, so the worker detaches from
	// the caller's context.
	go s.run(context.Background(), j, cleaned, systems)

	return j.Snapshot(), nil
}

// Status returns the current snapshot of a job.
func (s *Scheduler) Status(ctx context.Context, id string) (job.Job, error) {
	return s.registry.Get(ctx, id)
}

// Result returns the results of a completed job. Pending and processing
// jobs are not ready; failed jobs surface their recorded error.
func (s *Scheduler) Result(ctx context.Context, id string) (job.Job, error) {
	j, err := s.registry.Get(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	switch j.Status {
	case job.StatusCompleted:
		return j, nil
	case job.StatusFailed:
		return job.Job{}, fmt.Errorf("%w: %s", domain.ErrJobFailed, j.Error)
	default:
		return job.Job{}, fmt.Errorf("job %s is %s: %w", id, j.Status, domain.ErrJobNotReady)
	}
}

// run processes the job to completion. It owns the job record; all
// mutations flow through it into the registry.
func (s *Scheduler) run(ctx context.Context, j job.Job, terms []string, systems []domain.System) {
	log := s.logger.With(zap.String("job_id", j.ID), zap.Int("total_terms", j.TotalTerms))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("batch job panicked", zap.Any("panic", rec))
			s.fail(ctx, &j, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	j.Status = job.StatusProcessing
	s.save(ctx, &j)
	metrics.BatchJobsTotal.WithLabelValues(string(job.StatusProcessing)).Inc()
	log.Info("batch job started")

	for start := 0; start < len(terms); start += s.chunkSize {
		if start > 0 {
			time.Sleep(s.chunkDelay)
		}
		end := min(start+s.chunkSize, len(terms))

		resolver, err := s.pool.Acquire(ctx)
		if err != nil {
			s.fail(ctx, &j, fmt.Sprintf("acquire resolver: %v", err))
			return
		}
		chunkErr := s.processChunk(ctx, resolver, &j, terms[start:end], systems)
		s.pool.Release(resolver)
		if chunkErr != nil {
			s.fail(ctx, &j, chunkErr.Error())
			return
		}
	}

	j.Status = job.StatusCompleted
	s.save(ctx, &j)
	metrics.BatchJobsTotal.WithLabelValues(string(job.StatusCompleted)).Inc()
	log.Info("batch job completed", zap.Int("mappings", totalMappings(j.Results)))
}

// processChunk resolves one chunk of terms with a single resolver and
// records progress after every term so pollers see it move.
func (s *Scheduler) processChunk(
	ctx context.Context, resolver TermResolver, j *job.Job, terms []string, systems []domain.System,
) error {
	for _, text := range terms {
		res, err := resolver.Resolve(ctx, domain.Term{Text: text}, systems)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", text, err)
		}
		j.Results = append(j.Results, res)
		j.ProcessedTerms++
		metrics.BatchTermsProcessedTotal.Inc()
		s.save(ctx, j)
	}
	return nil
}

func (s *Scheduler) fail(ctx context.Context, j *job.Job, msg string) {
	j.Status = job.StatusFailed
	j.Error = msg
	s.save(ctx, j)
	metrics.BatchJobsTotal.WithLabelValues(string(job.StatusFailed)).Inc()
	s.logger.Error("batch job failed", zap.String("job_id", j.ID), zap.String("error", msg))
}

// save persists a snapshot. Registry failures mid-job are logged and
// swallowed; the worker keeps going rather than losing the whole batch
// to a transient store hiccup.
func (s *Scheduler) save(ctx context.Context, j *job.Job) {
	j.UpdatedAt = time.Now().UTC()
	if err := s.registry.Save(ctx, j.Snapshot()); err != nil {
		s.logger.Warn("persist job state", zap.String("job_id", j.ID), zap.Error(err))
	}
}

func totalMappings(results []domain.ResolutionResult) int {
	n := 0
	for _, r := range results {
		n += r.TotalMappings()
	}
	return n
}
