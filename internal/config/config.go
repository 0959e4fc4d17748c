package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DriverPgx  = "pgx"
	DriverGorm = "gorm"
	DriverSQL  = "sql"

	ModeFull = "full"
	ModeStub = "stub"

	// MaxConnsLimit is the largest pool size pgxpool can hold (int32).
	MaxConnsLimit = math.MaxInt32
)

// Config is the process configuration, read from the environment (and a
// .env file when present).
type Config struct {
	GRPCAddr    string
	HTTPAddr    string // empty disables the HTTP gateway
	ServiceMode string
	LogLevel    string
	Database    Database
}

// Database configures the record store pool. URL is handed to the driver
// untouched.
type Database struct {
	URL            string
	Driver         string
	MaxConns       int
	AcquireTimeout time.Duration
	AutoMigrate    bool
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		GRPCAddr:    getenv("TODO_GRPC_ADDR", "0.0.0.0:50051"),
		HTTPAddr:    os.Getenv("TODO_HTTP_ADDR"),
		ServiceMode: getenv("TODO_SERVICE_MODE", ModeFull),
		LogLevel:    getenv("TODO_LOG_LEVEL", "info"),
		Database: Database{
			URL:    os.Getenv("TODO_DATABASE_URL"),
			Driver: getenv("TODO_STORE_DRIVER", DriverPgx),
		},
	}

	var err error
	if cfg.Database.MaxConns, err = strconv.Atoi(getenv("TODO_DB_MAX_CONNS", "10")); err != nil {
		return nil, fmt.Errorf("invalid TODO_DB_MAX_CONNS: %w", err)
	}
	if cfg.Database.AcquireTimeout, err = time.ParseDuration(getenv("TODO_DB_ACQUIRE_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid TODO_DB_ACQUIRE_TIMEOUT: %w", err)
	}
	if cfg.Database.AutoMigrate, err = strconv.ParseBool(getenv("TODO_AUTO_MIGRATE", "true")); err != nil {
		return nil, fmt.Errorf("invalid TODO_AUTO_MIGRATE: %w", err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = blueprintDSN()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPgx, DriverGorm, DriverSQL:
	default:
		return fmt.Errorf("unknown TODO_STORE_DRIVER %q (want pgx, gorm or sql)", c.Database.Driver)
	}
	switch c.ServiceMode {
	case ModeFull, ModeStub:
	default:
		return fmt.Errorf("unknown TODO_SERVICE_MODE %q (want full or stub)", c.ServiceMode)
	}
	if c.Database.MaxConns <= 0 || c.Database.MaxConns > MaxConnsLimit {
		return fmt.Errorf("TODO_DB_MAX_CONNS must be between 1 and %d", MaxConnsLimit)
	}
	if c.Database.AcquireTimeout <= 0 {
		return errors.New("TODO_DB_ACQUIRE_TIMEOUT must be positive")
	}
	if c.ServiceMode == ModeFull && c.Database.URL == "" {
		return errors.New("no database configured: set TODO_DATABASE_URL or BLUEPRINT_DB_HOST")
	}
	return nil
}

// blueprintDSN builds a key/value connection string from the BLUEPRINT_DB_*
// variables, or returns "" when no host is set.
func blueprintDSN() string {
	host := os.Getenv("BLUEPRINT_DB_HOST")
	if host == "" {
		return ""
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host,
		os.Getenv("BLUEPRINT_DB_USERNAME"),
		os.Getenv("BLUEPRINT_DB_PASSWORD"),
		os.Getenv("BLUEPRINT_DB_DATABASE"),
		getenv("BLUEPRINT_DB_PORT", "5432"))
	if schema := os.Getenv("BLUEPRINT_DB_SCHEMA"); schema != "" {
		dsn += " search_path=" + schema
	}
	return dsn
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
