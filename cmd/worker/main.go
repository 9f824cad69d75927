package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	consentstore "datamesh/internal/consent/store"
	"datamesh/internal/consent/validator"
	"datamesh/internal/datanet"
	"datamesh/internal/ingest"
	"datamesh/internal/pipeline"
	"datamesh/internal/platform/config"
	"datamesh/internal/platform/httpserver"
	"datamesh/internal/platform/logger"
	platformredis "datamesh/internal/platform/redis"
	"datamesh/internal/scrubber"
	auditpublisher "datamesh/pkg/platform/audit/publisher"
	auditmemory "datamesh/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies and keeps the worker lifecycle small.
// Business logic lives in the internal packages.
func main() {
	log := logger.New()

	if err := run(log); err != nil {
		log.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tenantDB, err := openDB(ctx, cfg.TenantDSN)
	if err != nil {
		return err
	}
	defer tenantDB.Close()

	datanetDB, err := openDB(ctx, cfg.DatanetDSN)
	if err != nil {
		return err
	}
	defer datanetDB.Close()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("redis not configured, contribution de-duplication disabled")
	}

	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)

	auditStore := auditmemory.NewInMemoryStore()
	publisher := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(256),
		auditpublisher.WithLogger(log),
	)
	defer publisher.Close()

	consentValidator, err := validator.New(consentstore.NewPostgres(tenantDB),
		validator.WithTTL(cfg.ConsentCacheTTL),
		validator.WithCacheMetrics(metrics),
		validator.WithLogger(log),
	)
	if err != nil {
		return err
	}

	scrub, err := scrubber.New(cfg.ScrubSalt, scrubber.WithLogger(log))
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.New(consentValidator, scrub, datanet.NewPostgres(datanetDB),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(metrics),
		pipeline.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}

	entitiesClient, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.KafkaBrokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.EntitiesTopic),
	)
	if err != nil {
		return err
	}
	defer entitiesClient.Close()

	// Consent events fan out to every worker, so each instance joins its
	// own group and always sees the full invalidation stream.
	consentClient, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.KafkaBrokers...),
		kgo.ConsumeTopics(cfg.ConsentTopic),
	)
	if err != nil {
		return err
	}
	defer consentClient.Close()

	if err := ingest.EnsureTopics(ctx, entitiesClient, cfg.EntitiesTopic, cfg.ConsentTopic); err != nil {
		log.Warn("topic bootstrap failed", "error", err)
	}

	consumerOpts := []ingest.ConsumerOption{
		ingest.WithLogger(log),
		ingest.WithProcessTimeout(cfg.ProcessTimeout),
	}
	if redisClient != nil {
		deduper := ingest.NewRedisDeduper(redisClient.Client, cfg.ScrubSalt, cfg.DedupeWindow)
		consumerOpts = append(consumerOpts, ingest.WithDeduper(deduper))
	}
	consumer := ingest.NewConsumer(entitiesClient, orchestrator, consumerOpts...)
	listener := ingest.NewConsentListener(consentClient, consentValidator, log)

	srv := httpserver.New(cfg.Addr, opsRouter(tenantDB, datanetDB, redisClient))

	log.Info("starting datamesh worker",
		"addr", cfg.Addr,
		"entities_topic", cfg.EntitiesTopic,
		"consent_topic", cfg.ConsentTopic,
		"group", cfg.ConsumerGroup,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// opsRouter serves the operational endpoints. Readiness covers every
// backing store so a worker with a dead database drops out of rotation
// before it starts rejecting contributions.
func opsRouter(tenantDB, datanetDB *sql.DB, redisClient *platformredis.Client) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := tenantDB.PingContext(ctx); err != nil {
			http.Error(w, "tenant store unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := datanetDB.PingContext(ctx); err != nil {
			http.Error(w, "datanet store unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
