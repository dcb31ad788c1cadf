// Package config provides configuration management for the mint booth service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/mint-booth/internal/errors"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Algorand  AlgorandConfig
	Admin     AdminConfig
	Booth     BoothConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	FrontendURL string // allowed CORS origin
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
	AutoMigrate    bool
	MigrationsPath string

	// StatementTimeout caps every booth query server-side, 0 for none
	StatementTimeout time.Duration
}

// URL returns the postgres:// connection URL used by golang-migrate.
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// ClickHouseConfig holds ClickHouse configuration.
// ClickHouse only backs the sponsor payment audit log and may be disabled.
type ClickHouseConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// AlgorandConfig holds algod, indexer and fee pool settings
type AlgorandConfig struct {
	AlgodAddress       string
	AlgodToken         string
	IndexerAddress     string
	IndexerToken       string
	FeePoolMnemonic    string
	ConfirmationRounds uint64
	RequestTimeout     time.Duration
}

// maxRoundDuration is a pessimistic upper bound on one Algorand round
const maxRoundDuration = 5 * time.Second

// SubmitTimeout bounds a group submission and its confirmation wait
func (a AlgorandConfig) SubmitTimeout() time.Duration {
	return a.RequestTimeout + time.Duration(a.ConfirmationRounds)*maxRoundDuration // #nosec G115 - small positive value
}

// AdminConfig holds the admin login credentials and token signing secret
type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

// BoothConfig holds print booth defaults applied when the settings row is first created
type BoothConfig struct {
	DefaultMaxPrintRequests int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	ClaimedTTL time.Duration
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3001"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "mint_booth"),
				User:           getEnv("POSTGRES_USER", "booth"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
				AutoMigrate:    getEnvAsBool("POSTGRES_AUTO_MIGRATE", true),
				MigrationsPath: getEnv("POSTGRES_MIGRATIONS_PATH", ""),

				StatementTimeout: getEnvAsDuration("POSTGRES_STATEMENT_TIMEOUT", 5*time.Second),
			},
			ClickHouse: ClickHouseConfig{
				Enabled:        getEnvAsBool("CLICKHOUSE_ENABLED", false),
				Host:           getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:           getEnv("CLICKHOUSE_PORT", "9000"),
				Database:       getEnv("CLICKHOUSE_DB", "mint_booth"),
				User:           getEnv("CLICKHOUSE_USER", "default"),
				Password:       getEnv("CLICKHOUSE_PASSWORD", ""),
				MaxConnections: getEnvAsInt("CLICKHOUSE_MAX_CONNECTIONS", 4),
			},
			Redis: RedisConfig{
				Enabled:        getEnvAsBool("REDIS_ENABLED", false),
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Algorand: AlgorandConfig{
			AlgodAddress:       joinHostPort(getEnv("ALGOD_SERVER", ""), getEnv("ALGOD_PORT", "")),
			AlgodToken:         getEnv("ALGOD_TOKEN", ""),
			IndexerAddress:     joinHostPort(getEnv("INDEXER_SERVER", ""), getEnv("INDEXER_PORT", "")),
			IndexerToken:       getEnv("INDEXER_TOKEN", ""),
			FeePoolMnemonic:    getEnv("FEE_POOL_MNEMONIC", ""),
			ConfirmationRounds: uint64(getEnvAsInt("ALGOD_CONFIRMATION_ROUNDS", 4)), // #nosec G115 - small positive value
			RequestTimeout:     getEnvAsDuration("ALGOD_REQUEST_TIMEOUT", 10*time.Second),
		},
		Admin: AdminConfig{
			Username:  getEnv("ADMIN_USERNAME", ""),
			Password:  getEnv("ADMIN_PASSWORD", ""),
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("ADMIN_TOKEN_TTL", 7*24*time.Hour),
		},
		Booth: BoothConfig{
			DefaultMaxPrintRequests: getEnvAsInt("BOOTH_DEFAULT_MAX_PRINT_REQUESTS", 100),
		},
		Cache: CacheConfig{
			ClaimedTTL: getEnvAsDuration("CACHE_CLAIMED_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// Validate checks that every value the service cannot run without is present.
// A missing value is reported as a Misconfigured error naming all absent keys.
func (c *Config) Validate() error {
	var missing []string

	if c.Admin.Username == "" {
		missing = append(missing, "ADMIN_USERNAME")
	}
	if c.Admin.Password == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if c.Admin.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Algorand.FeePoolMnemonic == "" {
		missing = append(missing, "FEE_POOL_MNEMONIC")
	}
	if c.Algorand.AlgodAddress == "" {
		missing = append(missing, "ALGOD_SERVER")
	}
	if c.Algorand.IndexerAddress == "" {
		missing = append(missing, "INDEXER_SERVER")
	}

	if len(missing) > 0 {
		return apperrors.NewMisconfiguredError(fmt.Sprintf("missing required configuration: %s", strings.Join(missing, ", ")))
	}

	if c.Booth.DefaultMaxPrintRequests < 1 {
		return apperrors.NewMisconfiguredError("BOOTH_DEFAULT_MAX_PRINT_REQUESTS must be at least 1")
	}

	return nil
}

// joinHostPort appends a port to a server URL, mirroring how algod/indexer
// endpoints are usually configured as separate server and port values.
func joinHostPort(server, port string) string {
	if server == "" || port == "" {
		return server
	}
	return strings.TrimRight(server, "/") + ":" + port
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
