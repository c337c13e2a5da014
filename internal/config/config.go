package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Store drivers
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

// Lock modes
const (
	LockModeFile  = "file"
	LockModeRedis = "redis"
	LockModeNone  = "none"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Ledger storage configuration
	Store StoreConfig

	// Database configuration (postgres store driver)
	Database DatabaseConfig

	// Write serialization configuration
	Lock LockConfig

	// Redis configuration (redis lock mode)
	Redis RedisConfig

	// Event publishing configuration
	Events EventsConfig

	// Ledger defaults
	Ledger LedgerConfig

	// Admin authentication configuration
	Admin AdminConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	EnableRequestLog bool
}

// StoreConfig selects where ledger state lives
type StoreConfig struct {
	Driver     string // file or postgres
	DataDir    string
	RoutesFile string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// LockConfig holds the single-writer lock configuration
type LockConfig struct {
	Mode        string // file, redis or none
	WaitTimeout time.Duration
	TTL         time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EventsConfig holds the booking event broker configuration
type EventsConfig struct {
	RabbitMQURL string // empty disables publishing
}

// LedgerConfig holds ledger defaults
type LedgerConfig struct {
	DefaultSeatsPerRoute int
	AuditSchedule        string // cron spec, empty disables the scheduled audit
}

// AdminConfig holds admin login configuration
type AdminConfig struct {
	PasswordHash string // bcrypt hash, empty disables admin endpoints
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	config := FromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv builds the configuration from the current environment without
// reading .env or validating
func FromEnv() *Config {
	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),

			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFile)),
			DataDir:    dataDir,
			RoutesFile: getEnv("ROUTES_FILE", dataDir+string(os.PathSeparator)+"routes.txt"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Lock: LockConfig{
			Mode:        strings.ToLower(getEnv("LOCK_MODE", LockModeFile)),
			WaitTimeout: getEnvAsDuration("LOCK_WAIT_TIMEOUT", 10*time.Second),
			TTL:         getEnvAsDuration("LOCK_TTL", 30*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		},
		Ledger: LedgerConfig{
			DefaultSeatsPerRoute: getEnvAsInt("DEFAULT_SEATS_PER_ROUTE", 40),
			AuditSchedule:        getEnv("AUDIT_SCHEDULE", ""),
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file store")
		}
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %s (must be 'file' or 'postgres')", c.Store.Driver)
	}

	switch c.Lock.Mode {
	case LockModeFile, LockModeNone:
	case LockModeRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for redis lock mode")
		}
	default:
		return fmt.Errorf("invalid LOCK_MODE: %s (must be 'file', 'redis' or 'none')", c.Lock.Mode)
	}

	if c.Lock.Mode == LockModeFile && c.Store.Driver == StoreDriverPostgres && c.Store.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required to hold the lock file")
	}

	if c.Lock.WaitTimeout <= 0 {
		return fmt.Errorf("LOCK_WAIT_TIMEOUT must be positive")
	}

	if c.Ledger.DefaultSeatsPerRoute <= 0 {
		return fmt.Errorf("DEFAULT_SEATS_PER_ROUTE must be positive")
	}

	if c.Admin.PasswordHash != "" && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}

	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration syntax ("5s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.Warnf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
