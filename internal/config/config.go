package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                   string
	ServiceName              string
	ServiceVersion           string
	HTTPAddr                 string
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	ShutdownTimeout          time.Duration
	StorageDriver            string
	DBURL                    string
	DBDisablePreparedBinary  bool
	DBMaxOpenConns           int
	CacheEnabled             bool
	CacheTTL                 time.Duration
	CORSAllowedOrigins       []string
	StatsBaseURL             string
	StatsTimeout             time.Duration
	StatsMaxRetries          int
	StatsCircuitEnabled      bool
	StatsCircuitFailureCount int
	StatsCircuitOpenTimeout  time.Duration
	StatsCircuitProbeBudget  int
	SweepEnabled             bool
	SweepInterval            time.Duration
	SweepWorkers             int
	InternalJobToken         string
	LogLevel                 logging.Level
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	storageDriver, err := parseStorageDriver(getEnv("STORAGE_DRIVER", StorageMemory))
	if err != nil {
		return Config{}, err
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storageDriver == StoragePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
	}
	dbDisablePreparedBinary, err := getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", false)
	if err != nil {
		return Config{}, err
	}
	dbMaxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, err
	}
	if dbMaxOpenConns < 1 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
	}

	cacheEnabled, err := getEnvAsBool("CACHE_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := getEnvAsDuration("CACHE_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	statsBaseURL := strings.TrimSpace(getEnv("STATS_SOURCE_BASE_URL", ""))
	statsTimeout, err := getEnvAsDuration("STATS_SOURCE_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	statsMaxRetries, err := getEnvAsInt("STATS_SOURCE_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, err
	}
	if statsMaxRetries < 0 {
		return Config{}, fmt.Errorf("STATS_SOURCE_MAX_RETRIES must be >= 0")
	}
	statsCircuitEnabled, err := getEnvAsBool("STATS_SOURCE_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	statsCircuitFailureCount, err := getEnvAsInt("STATS_SOURCE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	statsCircuitOpenTimeout, err := getEnvAsDuration("STATS_SOURCE_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	statsCircuitProbeBudget, err := getEnvAsInt("STATS_SOURCE_CIRCUIT_PROBE_BUDGET", 2)
	if err != nil {
		return Config{}, err
	}

	sweepEnabled, err := getEnvAsBool("SWEEP_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	sweepInterval, err := getEnvAsDuration("SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	if sweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	sweepWorkers, err := getEnvAsInt("SWEEP_WORKERS", 8)
	if err != nil {
		return Config{}, err
	}
	if sweepWorkers < 1 {
		return Config{}, fmt.Errorf("SWEEP_WORKERS must be > 0")
	}

	return Config{
		AppEnv:                   appEnv,
		ServiceName:              getEnv("SERVICE_NAME", "teamcomp"),
		ServiceVersion:           getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:              readTimeout,
		WriteTimeout:             writeTimeout,
		ShutdownTimeout:          shutdownTimeout,
		StorageDriver:            storageDriver,
		DBURL:                    dbURL,
		DBDisablePreparedBinary:  dbDisablePreparedBinary,
		DBMaxOpenConns:           dbMaxOpenConns,
		CacheEnabled:             cacheEnabled,
		CacheTTL:                 cacheTTL,
		CORSAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		StatsBaseURL:             statsBaseURL,
		StatsTimeout:             statsTimeout,
		StatsMaxRetries:          statsMaxRetries,
		StatsCircuitEnabled:      statsCircuitEnabled,
		StatsCircuitFailureCount: statsCircuitFailureCount,
		StatsCircuitOpenTimeout:  statsCircuitOpenTimeout,
		StatsCircuitProbeBudget:  statsCircuitProbeBudget,
		SweepEnabled:             sweepEnabled,
		SweepInterval:            sweepInterval,
		SweepWorkers:             sweepWorkers,
		InternalJobToken:         strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		LogLevel:                 parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}, nil
}

// SlogLevel maps the zap-based level onto the slog scale used by the HTTP
// access logger.
func (c Config) SlogLevel() slog.Level {
	switch {
	case c.LogLevel <= logging.LevelDebug:
		return slog.LevelDebug
	case c.LogLevel == logging.LevelInfo:
		return slog.LevelInfo
	case c.LogLevel == logging.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseStorageDriver(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case StorageMemory, StoragePostgres:
		return value, nil
	default:
		return "", fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", v, StorageMemory, StoragePostgres)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(getEnv(key, strconv.Itoa(fallback)))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(getEnv(key, strconv.FormatBool(fallback)))
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getEnv(key, fallback.String()))
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
