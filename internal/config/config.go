// Package config loads the runtime configuration of the marketplace binaries
// from environment variables. A local .env file is honoured when present.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	DBDriver         string
	SQLitePath       string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	SagaLogPath      string
	SeedDemoData     bool

	RedisAddr       string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration

	RabbitMQURL      string
	OrderEventsQueue string
	ChannelPoolSize  int
	WorkerCount      int

	StripeSecretKey string
	ReceiptDir      string
	MinInvestment   float64

	OTelEnabled     bool
	OTelServiceName string
	LogLevel        slog.Level
}

// Load reads .env (if any) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":9090"),

		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/marketplace.db"),
		PostgresUser:     getEnv("POSTGRES_USER", "brail"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "brail"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "marketplace"),
		SagaLogPath:      getEnv("SAGA_LOG_PATH", "./data/saga.db"),
		SeedDemoData:     getEnvAsBool("SEED_DEMO_DATA", true),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		CatalogCacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		OrderEventsQueue: getEnv("ORDER_EVENTS_QUEUE", "order-events"),
		ChannelPoolSize:  getEnvAsInt("CHANNEL_POOL_SIZE", 10),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 4),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		ReceiptDir:      getEnv("RECEIPT_DIR", "./data/receipts"),
		MinInvestment:   getEnvAsFloat("MIN_INVESTMENT", 10000),

		OTelEnabled:     getEnvAsBool("OTEL_ENABLED", false),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "marketplace-api"),
		LogLevel:        parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// DBConnectionString returns the lib/pq URL for the postgres driver.
func (c *Config) DBConnectionString() string {
	user := valueOr(c.PostgresUser, "brail")
	password := valueOr(c.PostgresPassword, "brail")
	host := valueOr(c.PostgresHost, "localhost")
	port := valueOr(c.PostgresPort, "5432")
	db := valueOr(c.PostgresDB, "marketplace")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, db)
}

// DSN returns the data source for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DBConnectionString()
	}
	return c.SQLitePath
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
