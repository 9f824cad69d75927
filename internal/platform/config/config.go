package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Worker captures the ingestion worker's configuration.
type Worker struct {
	// Addr serves the ops endpoints (/healthz, /readyz, /metrics).
	Addr string

	// TenantDSN points at the tenant-administration database (consent
	// reads only). DatanetDSN points at the data network database.
	// They must differ: the shared store is isolated from every tenant
	// production store by construction, not convention.
	TenantDSN  string
	DatanetDSN string

	RedisURL string

	KafkaBrokers  []string
	EntitiesTopic string
	ConsentTopic  string
	ConsumerGroup string

	ScrubSalt       string
	ConsentCacheTTL time.Duration
	DedupeWindow    time.Duration
	ProcessTimeout  time.Duration
}

// FromEnv builds a Worker config from environment variables so main stays
// lean.
func FromEnv() Worker {
	return Worker{
		Addr:            envOr("DATAMESH_ADDR", ":8080"),
		TenantDSN:       os.Getenv("DATAMESH_TENANT_DSN"),
		DatanetDSN:      os.Getenv("DATAMESH_DATANET_DSN"),
		RedisURL:        os.Getenv("DATAMESH_REDIS_URL"),
		KafkaBrokers:    splitList(envOr("DATAMESH_KAFKA_BROKERS", "localhost:9092")),
		EntitiesTopic:   envOr("DATAMESH_ENTITIES_TOPIC", "datamesh.entities"),
		ConsentTopic:    envOr("DATAMESH_CONSENT_TOPIC", "datamesh.consent-events"),
		ConsumerGroup:   envOr("DATAMESH_CONSUMER_GROUP", "datamesh-worker"),
		ScrubSalt:       os.Getenv("DATAMESH_SCRUB_SALT"),
		ConsentCacheTTL: durationOr("DATAMESH_CONSENT_CACHE_TTL", 30*time.Second),
		DedupeWindow:    durationOr("DATAMESH_DEDUPE_WINDOW", 24*time.Hour),
		ProcessTimeout:  durationOr("DATAMESH_PROCESS_TIMEOUT", 10*time.Second),
	}
}

// Validate enforces the settings the worker refuses to start without.
func (w Worker) Validate() error {
	if w.ScrubSalt == "" {
		return fmt.Errorf("DATAMESH_SCRUB_SALT is required")
	}
	if w.DatanetDSN == "" {
		return fmt.Errorf("DATAMESH_DATANET_DSN is required")
	}
	if w.TenantDSN == "" {
		return fmt.Errorf("DATAMESH_TENANT_DSN is required")
	}
	// Hard isolation invariant: scrubbed data never lands in a tenant
	// store and tenant data never lands in the data network.
	if w.TenantDSN == w.DatanetDSN {
		return fmt.Errorf("tenant and datanet DSNs must point at separate databases")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
