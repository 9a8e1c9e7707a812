// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable via MERIDIAN_STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	StoreBackend string
	PostgresURL  string
	Redis        RedisConfig
	Kafka        KafkaConfig

	ShutdownTimeout time.Duration
}

// RedisConfig captures go-redis client tuning. An empty URL means Redis is
// not configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the audit trail broker settings. Empty brokers means
// events stay in process.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("MERIDIAN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("MERIDIAN_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default, must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	backend := os.Getenv("MERIDIAN_STORE_BACKEND")
	if backend == "" {
		backend = StoreMemory
	}

	kafkaTopic := os.Getenv("MERIDIAN_KAFKA_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "meridian.intake.audit"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envOr("MERIDIAN_JWT_ISSUER", "meridian"),
		JWTAudience:   envOr("MERIDIAN_JWT_AUDIENCE", "meridian-intake"),

		StoreBackend: backend,
		PostgresURL:  os.Getenv("MERIDIAN_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("MERIDIAN_REDIS_URL"),
			PoolSize:     envInt("MERIDIAN_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("MERIDIAN_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("MERIDIAN_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("MERIDIAN_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("MERIDIAN_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("MERIDIAN_KAFKA_BROKERS")),
			Topic:   kafkaTopic,
		},

		ShutdownTimeout: envDuration("MERIDIAN_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
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
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
