package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr       string
	AdminToken string
	Postgres   PostgresConfig
	Redis      RedisConfig
}

// PostgresConfig holds the database connection settings. An empty URL means
// the process runs on in-memory stores (development and tests).
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
}

// RedisConfig holds the redis connection settings. An empty URL disables the
// batch generation lock (single-instance deployments don't need it).
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CETRACK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	adminToken := os.Getenv("CETRACK_ADMIN_TOKEN")

	return Server{
		Addr:       addr,
		AdminToken: adminToken,
		Postgres: PostgresConfig{
			URL:          os.Getenv("CETRACK_POSTGRES_URL"),
			MaxOpenConns: envInt("CETRACK_POSTGRES_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CETRACK_REDIS_URL"),
			PoolSize:     envInt("CETRACK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CETRACK_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
