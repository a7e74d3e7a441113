package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
)

// AdapterType selects the PostgreSQL connection type.
type AdapterType string

const (
	AdapterPGXPool AdapterType = "pgx.pool"
	AdapterSQLDB   AdapterType = "sql.db"
	AdapterSQLXDB  AdapterType = "sqlx.db"
)

const (
	EnvPostgresDSN        = "LIBER_POSTGRES_DSN"
	EnvPostgresReplicaDSN = "LIBER_POSTGRES_REPLICA_DSN"
	EnvAdapterType        = "LIBER_ADAPTER_TYPE"
	EnvHTTPAddr           = "LIBER_HTTP_ADDR"
	EnvRedisAddr          = "LIBER_REDIS_ADDR"
	EnvCacheTTL           = "LIBER_CACHE_TTL"
	EnvFineDailyRate      = "LIBER_FINE_DAILY_RATE"
	EnvFineMax            = "LIBER_FINE_MAX"
	EnvLogLevel           = "LIBER_LOG_LEVEL"
	EnvMetricsEndpoint    = "LIBER_OTLP_METRICS_ENDPOINT"
	EnvMetricsInterval    = "LIBER_OTLP_METRICS_INTERVAL"

	defaultHTTPAddr = ":8080"
	defaultCacheTTL = 30 * time.Second
	defaultInterval = 15 * time.Second
)

var (
	ErrMissingPostgresDSN   = errors.New(EnvPostgresDSN + " must be set")
	ErrUnsupportedAdapter   = errors.New("unsupported adapter type, use pgx.pool, sql.db or sqlx.db")
	ErrInvalidCacheTTL      = errors.New(EnvCacheTTL + " must be a non-negative duration")
	ErrInvalidFineDailyRate = errors.New(EnvFineDailyRate + " must be a non-negative decimal")
	ErrInvalidFineMax       = errors.New(EnvFineMax + " must be a non-negative decimal")
	ErrInvalidLogLevel      = errors.New(EnvLogLevel + " must be one of debug, info, warn, error")
	ErrInvalidMetricsPeriod = errors.New(EnvMetricsInterval + " must be a positive duration")
	ErrLoadingDotEnvFailed  = errors.New("loading .env file failed")
)

// Config is the runtime configuration of the liber binaries.
type Config struct {
	PostgresDSN        string
	PostgresReplicaDSN string
	AdapterType        AdapterType
	HTTPAddr           string
	RedisAddr          string // empty disables the dashboard cache
	CacheTTL           time.Duration
	FineSchedule       core.FineSchedule
	LogLevel           slog.Level
	MetricsEndpoint    string // OTLP gRPC collector, empty disables metrics export
	MetricsInterval    time.Duration
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the given .env files (default ".env") into the process environment without overriding
// variables that are already set, then builds the Config. Missing .env files are ignored.
func Load(dotEnvFiles ...string) (Config, error) {
	if err := godotenv.Load(dotEnvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Join(ErrLoadingDotEnvFailed, err)
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds the Config from the lookup function.
func FromEnv(lookup LookupFunc) (Config, error) {
	get := func(key string) string {
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}

	cfg := Config{
		PostgresDSN:        get(EnvPostgresDSN),
		PostgresReplicaDSN: get(EnvPostgresReplicaDSN),
		AdapterType:        AdapterType(get(EnvAdapterType)),
		HTTPAddr:           get(EnvHTTPAddr),
		RedisAddr:          get(EnvRedisAddr),
		CacheTTL:           defaultCacheTTL,
		FineSchedule:       core.DefaultFineSchedule(),
		LogLevel:           slog.LevelInfo,
		MetricsEndpoint:    get(EnvMetricsEndpoint),
		MetricsInterval:    defaultInterval,
	}

	if cfg.PostgresDSN == "" {
		return Config{}, ErrMissingPostgresDSN
	}

	switch cfg.AdapterType {
	case "":
		cfg.AdapterType = AdapterPGXPool
	case AdapterPGXPool, AdapterSQLDB, AdapterSQLXDB:
	default:
		return Config{}, ErrUnsupportedAdapter
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}

	if raw := get(EnvCacheTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl < 0 {
			return Config{}, ErrInvalidCacheTTL
		}

		cfg.CacheTTL = ttl
	}

	if raw := get(EnvFineDailyRate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			return Config{}, ErrInvalidFineDailyRate
		}

		cfg.FineSchedule.DailyRate = rate
	}

	if raw := get(EnvFineMax); raw != "" {
		maxFine, err := decimal.NewFromString(raw)
		if err != nil || maxFine.IsNegative() {
			return Config{}, ErrInvalidFineMax
		}

		cfg.FineSchedule.MaxFine = maxFine
	}

	if raw := get(EnvLogLevel); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, ErrInvalidLogLevel
		}
	}

	if raw := get(EnvMetricsInterval); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return Config{}, ErrInvalidMetricsPeriod
		}

		cfg.MetricsInterval = interval
	}

	return cfg, nil
}
