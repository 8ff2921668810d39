package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corvid-health/termmap/internal/db"
	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/job"
)

const (
	jobKeyPrefix  = "termmap:job:"
	defaultJobTTL = 24 * time.Hour
)

// KVStore is the narrow store contract the redis registry needs.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Redis persists jobs as JSON in a key-value store so batch state
// survives process restarts. Entries expire after the TTL.
type Redis struct {
	store KVStore
	ttl   time.Duration
}

// NewRedis creates a redis-backed registry with the default TTL.
func NewRedis(store KVStore) *Redis {
	return &Redis{store: store, ttl: defaultJobTTL}
}

// WithTTL overrides the job expiration.
func (r *Redis) WithTTL(ttl time.Duration) *Redis {
	if ttl > 0 {
		r.ttl = ttl
	}
	return r
}

// Save serializes the job and stores it under its key.
func (r *Redis) Save(ctx context.Context, j job.Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", j.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, jobKey(j.ID), data, r.ttl); err != nil {
		return fmt.Errorf("store job %s: %w", j.ID, err)
	}
	return nil
}

// Get loads and deserializes a job, or returns domain.ErrJobNotFound.
func (r *Redis) Get(ctx context.Context, id string) (job.Job, error) {
	data, err := r.store.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return job.Job{}, domain.ErrJobNotFound
		}
		return job.Job{}, fmt.Errorf("load job %s: %w", id, err)
	}
	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return job.Job{}, fmt.Errorf("parse job %s: %w", id, err)
	}
	return j, nil
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
