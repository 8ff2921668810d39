package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/corvid-health/termmap/internal/config"
	dbRedis "github.com/corvid-health/termmap/internal/db/redis"
	"github.com/corvid-health/termmap/internal/domain"
	"github.com/corvid-health/termmap/internal/domain/similarity"
	logpkg "github.com/corvid-health/termmap/internal/logger"
	"github.com/corvid-health/termmap/internal/metrics"
	"github.com/corvid-health/termmap/internal/repository/jobs"
	"github.com/corvid-health/termmap/internal/repository/vocab"
	chiTransport "github.com/corvid-health/termmap/internal/transport/chi"
	openaiExt "github.com/corvid-health/termmap/internal/transport/openai"
	"github.com/corvid-health/termmap/internal/transport/providers"
	batchuc "github.com/corvid-health/termmap/internal/usecase/batch"
	extractuc "github.com/corvid-health/termmap/internal/usecase/extract"
	healthuc "github.com/corvid-health/termmap/internal/usecase/health"
	"github.com/corvid-health/termmap/internal/usecase/resolve"
	"github.com/corvid-health/termmap/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting termmap API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("jobs_driver", cfg.Jobs.Driver),
		zap.Int("pool_size", cfg.Resolver.PoolSize),
	)

	// Register lookup and batch metrics explicitly (no init())
	metrics.RegisterLookupMetrics()

	// Embedded vocabulary datasets
	dataset, err := vocab.Load()
	if err != nil {
		logger.Fatal("Failed to load vocabulary datasets", zap.Error(err))
	}
	for _, sys := range domain.AllSystems() {
		logger.Info("Vocabulary loaded",
			zap.String("system", string(sys)),
			zap.Int("entries", dataset.Count(sys)),
		)
	}

	// Job registry: in-memory by default, redis when configured
	ctx := context.Background()
	var registry batchuc.Registry = jobs.NewMemory()
	var dbPinger healthuc.DBPinger
	if cfg.Jobs.Driver == "redis" {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Jobs.Redis.Addrs,
			Username: cfg.Jobs.Redis.Username,
			Password: cfg.Jobs.Redis.Password,
			DB:       cfg.Jobs.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Jobs.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis job store")

		registry = jobs.NewRedis(store).WithTTL(time.Duration(cfg.Jobs.Redis.TTLHours) * time.Hour)
		dbPinger = store
	}

	// Remote provider chains per vocabulary system
	remotes := buildProviderChains(cfg.Providers, logger)

	// Each pooled resolver owns its sources exclusively
	pool := resolve.NewPool(cfg.Resolver.PoolSize, func() *resolve.Resolver {
		return resolve.NewResolver(
			remotes,
			dataset.NewHandle(),
			similarity.NewScorer(),
			resolve.Options{
				MinConfidence: cfg.Resolver.MinConfidence,
				MaxPerSystem:  cfg.Resolver.MaxPerSystem,
			},
			logger,
		)
	})
	defer pool.Close()

	// Batch scheduler
	scheduler := batchuc.NewScheduler(&batchPool{pool: pool}, registry, logger).
		WithChunking(cfg.Batch.ChunkSize, time.Duration(cfg.Batch.ChunkDelayMs)*time.Millisecond)

	// Term extraction: model-backed when configured, lexicon otherwise
	var modelExtractor extractuc.TermExtractor
	var extractorChecker healthuc.ExtractorChecker
	if cfg.Extract.Enabled() {
		ext := openaiExt.NewExtractor(&openaiExt.Config{
			APIKey:  cfg.Extract.APIKey,
			BaseURL: cfg.Extract.BaseURL,
			Model:   cfg.Extract.Model,
			Logger:  logger,
		})
		modelExtractor = ext
		extractorChecker = ext
		logger.Info("Model extractor enabled", zap.String("model", cfg.Extract.Model))
	}
	extractSvc := extractuc.New(modelExtractor, &extractPool{pool: pool}, logger)

	// Health service
	healthSvc := healthuc.New(dataset, dbPinger, extractorChecker)

	// HTTP server
	server := chiTransport.NewServer(pool, scheduler, extractSvc, healthSvc, dataset, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildProviderChains wires the remote lookup chain for each system.
// Chain order is fixed: the authoritative source first, NLM Clinical
// Tables as the fallback where one exists.
func buildProviderChains(cfg config.ProvidersConfig, logger *zap.Logger) map[domain.System]resolve.RemoteClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	snomed := providers.NewChain(domain.SystemSNOMED, timeout, logger,
		providers.NewSnowstorm(&providers.SnowstormConfig{
			BaseURL: cfg.Snowstorm.BaseURL,
			Branch:  cfg.Snowstorm.Branch,
			MaxList: cfg.Snowstorm.Limit,
			Logger:  logger,
		}),
		providers.NewClinicalTables(&providers.ClinicalTablesConfig{
			BaseURL: cfg.ClinicalTables.BaseURL,
			Table:   "snomedct",
			System:  domain.SystemSNOMED,
			MaxList: cfg.ClinicalTables.MaxList,
			Logger:  logger,
		}),
	)

	loinc := providers.NewChain(domain.SystemLOINC, timeout, logger,
		providers.NewClinicalTables(&providers.ClinicalTablesConfig{
			BaseURL: cfg.ClinicalTables.BaseURL,
			Table:   "loinc_items",
			System:  domain.SystemLOINC,
			MaxList: cfg.ClinicalTables.MaxList,
			Logger:  logger,
		}),
	)

	rxnorm := providers.NewChain(domain.SystemRxNorm, timeout, logger,
		providers.NewRxNav(&providers.RxNavConfig{
			BaseURL: cfg.RxNav.BaseURL,
			MaxList: cfg.RxNav.MaxList,
			Logger:  logger,
		}),
		providers.NewClinicalTables(&providers.ClinicalTablesConfig{
			BaseURL: cfg.ClinicalTables.BaseURL,
			Table:   "rxterms",
			System:  domain.SystemRxNorm,
			MaxList: cfg.ClinicalTables.MaxList,
			Logger:  logger,
		}),
	)

	return map[domain.System]resolve.RemoteClient{
		domain.SystemSNOMED: snomed,
		domain.SystemLOINC:  loinc,
		domain.SystemRxNorm: rxnorm,
	}
}

// batchPool narrows *resolve.Pool to the batch scheduler contract.
type batchPool struct {
	pool *resolve.Pool
}

func (p *batchPool) Acquire(ctx context.Context) (batchuc.TermResolver, error) {
	return p.pool.Acquire(ctx)
}

func (p *batchPool) Release(r batchuc.TermResolver) {
	p.pool.Release(r.(*resolve.Resolver))
}

// extractPool narrows *resolve.Pool to the extraction service contract.
type extractPool struct {
	pool *resolve.Pool
}

func (p *extractPool) Acquire(ctx context.Context) (extractuc.TermResolver, error) {
	return p.pool.Acquire(ctx)
}

func (p *extractPool) Release(r extractuc.TermResolver) {
	p.pool.Release(r.(*resolve.Resolver))
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
