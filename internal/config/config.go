package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for enumerated settings.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SnapshotFile   = "file"
	SnapshotBadger = "badger"

	RetrainSync  = "sync"
	RetrainAsync = "async"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Models    ModelConfig
	Recommend RecommendConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr               string
	CORSOrigins        []string
	RateLimitPerMinute int
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string
	Format string
}

// ModelConfig controls where trained models live and how retraining runs.
type ModelConfig struct {
	Dir             string
	SnapshotBackend string
	RetrainMode     string
	RetrainDebounce time.Duration
}

// RecommendConfig tunes the recommender and planner.
type RecommendConfig struct {
	CacheTTL time.Duration
	// PlannerSeed fixes the planner's random source; zero seeds from the clock.
	PlannerSeed uint64
}

// Load reads an optional .env file (ENV_FILE, default ".env") and then
// inspects the environment to build a Config value. Variables already set in
// the environment take precedence over the file.
func Load() (Config, error) {
	if err := loadDotEnv(firstNonEmpty(os.Getenv("ENV_FILE"), ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		CORSOrigins:        splitList(firstNonEmpty(os.Getenv("CORS_ORIGINS"), "*")),
		RateLimitPerMinute: parseIntWithDefault(os.Getenv("RATE_LIMIT_PER_MINUTE"), 300),
	}

	cfg.Database = DatabaseConfig{
		Driver: strings.ToLower(firstNonEmpty(os.Getenv("DATABASE_DRIVER"), DriverPostgres)),
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 25),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 15*time.Minute),
		UseMock: parseBoolWithDefault(firstNonEmpty(
			os.Getenv("USE_MOCK_DATABASE"),
			os.Getenv("DATABASE_USE_MOCK"),
		), false),
	}

	cfg.Logging = LoggingConfig{
		Level:  strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")),
		Format: strings.ToLower(firstNonEmpty(os.Getenv("LOG_FORMAT"), "text")),
	}

	cfg.Models = ModelConfig{
		Dir:             firstNonEmpty(os.Getenv("MODEL_DIR"), "models_data"),
		SnapshotBackend: strings.ToLower(firstNonEmpty(os.Getenv("SNAPSHOT_BACKEND"), SnapshotFile)),
		RetrainMode:     strings.ToLower(firstNonEmpty(os.Getenv("RETRAIN_MODE"), RetrainAsync)),
		RetrainDebounce: parseDurationWithDefault(os.Getenv("RETRAIN_DEBOUNCE"), 2*time.Second),
	}

	cfg.Recommend = RecommendConfig{
		CacheTTL:    parseDurationWithDefault(os.Getenv("RECOMMENDATION_CACHE_TTL"), 30*time.Minute),
		PlannerSeed: parseUintWithDefault(os.Getenv("PLANNER_SEED"), 0),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server address must not be empty")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Models.SnapshotBackend {
	case SnapshotFile, SnapshotBadger:
	default:
		return fmt.Errorf("unsupported snapshot backend %q", c.Models.SnapshotBackend)
	}
	switch c.Models.RetrainMode {
	case RetrainSync, RetrainAsync:
	default:
		return fmt.Errorf("unsupported retrain mode %q", c.Models.RetrainMode)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntWithDefault(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

func parseUintWithDefault(value string, def uint64) uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

func parseBoolWithDefault(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}
