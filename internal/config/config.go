package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"dstech-dashboard/internal/platform/database"
)

// ConfigPathEnv names the optional YAML config file.
const ConfigPathEnv = "DASHBOARD_CONFIG"

// Config is the dashboard server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Timezone string         `yaml:"timezone"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Reports  ReportsConfig  `yaml:"reports"`
	Live     LiveConfig     `yaml:"live"`
	LogLevel string         `yaml:"log_level"`
}

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// DatabaseConfig configures the historian connection.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
	// WallClock reads historian timestamps as plant wall-clock times.
	WallClock bool `yaml:"wall_clock"`
	// EnsureSchema creates the historian tables on SQLite.
	EnsureSchema bool `yaml:"ensure_schema"`
}

// CacheConfig configures the row-set cache.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	Disabled      bool          `yaml:"disabled"`
}

// AuthConfig configures login and token checks.
type AuthConfig struct {
	Enabled   bool          `yaml:"enabled"`
	JWTSecret string        `yaml:"jwt_secret"`
	UsersFile string        `yaml:"users_file"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// ReportsConfig configures report archiving.
type ReportsConfig struct {
	StorageRoot string   `yaml:"storage_root"`
	S3Bucket    string   `yaml:"s3_bucket"`
	S3Prefix    string   `yaml:"s3_prefix"`
	S3Region    string   `yaml:"s3_region"`
	S3Endpoint  string   `yaml:"s3_endpoint"`
	S3PathStyle bool     `yaml:"s3_path_style"`
	DailyAt     string   `yaml:"daily_at"`
	Formats     []string `yaml:"formats"`
}

// LiveConfig configures the live feed.
type LiveConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "pgx",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			ConnLifetime: time.Hour,
		},
		Timezone: "America/Sao_Paulo",
		Cache:    CacheConfig{TTL: 30 * time.Second},
		Auth:     AuthConfig{TokenTTL: 12 * time.Hour},
		Reports: ReportsConfig{
			DailyAt: "02:00",
			Formats: []string{"pdf", "xlsx"},
		},
		Live:     LiveConfig{Interval: 15 * time.Second},
		LogLevel: "info",
	}
}

// Load reads defaults, the optional DASHBOARD_CONFIG file and environment
// overrides, then validates the result.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an injectable environment.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if path := getenv(ConfigPathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	env := environment{getenv: getenv}
	env.apply(&cfg)
	if env.err != nil {
		return cfg, env.err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for startup.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if _, err := database.DialectFor(c.Database.Driver); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn (DATABASE_URL) is required"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.Auth.Enabled {
		if len(c.Auth.JWTSecret) < 16 {
			errs = append(errs, errors.New("auth.jwt_secret must have at least 16 characters"))
		}
		if c.Auth.UsersFile == "" {
			errs = append(errs, errors.New("auth.users_file is required when auth is enabled"))
		}
	}
	if c.ReportsEnabled() {
		if _, err := time.Parse("15:04", c.Reports.DailyAt); err != nil {
			errs = append(errs, fmt.Errorf("reports.daily_at %q must be HH:MM", c.Reports.DailyAt))
		}
	}
	for _, format := range c.Reports.Formats {
		switch strings.ToLower(format) {
		case "pdf", "xlsx", "csv", "zip":
		default:
			errs = append(errs, fmt.Errorf("reports.formats: unknown format %q", format))
		}
	}
	if c.Live.Interval < time.Second {
		errs = append(errs, errors.New("live.interval must be at least 1s"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Location loads the plant time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ReportsEnabled reports whether an archive backend is configured.
func (c Config) ReportsEnabled() bool {
	return c.Reports.StorageRoot != "" || c.Reports.S3Bucket != ""
}

type environment struct {
	getenv func(string) string
	err    error
}

func (e *environment) apply(cfg *Config) {
	e.str("HTTP_ADDR", &cfg.HTTP.Addr)
	e.duration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	e.duration("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)
	e.list("CORS_ORIGINS", &cfg.HTTP.CORSOrigins)

	e.str("DB_DRIVER", &cfg.Database.Driver)
	e.str("DATABASE_URL", &cfg.Database.DSN)
	e.integer("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	e.integer("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	e.duration("DB_CONN_LIFETIME", &cfg.Database.ConnLifetime)
	e.boolean("HISTORIAN_WALL_CLOCK", &cfg.Database.WallClock)
	e.boolean("DB_ENSURE_SCHEMA", &cfg.Database.EnsureSchema)
	e.str("TIMEZONE", &cfg.Timezone)

	e.str("REDIS_ADDR", &cfg.Cache.RedisAddr)
	e.str("REDIS_PASSWORD", &cfg.Cache.RedisPassword)
	e.integer("REDIS_DB", &cfg.Cache.RedisDB)
	e.duration("CACHE_TTL", &cfg.Cache.TTL)
	e.boolean("CACHE_DISABLED", &cfg.Cache.Disabled)

	e.boolean("AUTH_ENABLED", &cfg.Auth.Enabled)
	e.str("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	e.str("USERS_FILE", &cfg.Auth.UsersFile)
	e.duration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)

	e.str("REPORT_STORAGE_ROOT", &cfg.Reports.StorageRoot)
	e.str("REPORT_S3_BUCKET", &cfg.Reports.S3Bucket)
	e.str("REPORT_S3_PREFIX", &cfg.Reports.S3Prefix)
	e.str("REPORT_S3_REGION", &cfg.Reports.S3Region)
	e.str("REPORT_S3_ENDPOINT", &cfg.Reports.S3Endpoint)
	e.boolean("REPORT_S3_PATH_STYLE", &cfg.Reports.S3PathStyle)
	e.str("REPORT_DAILY_AT", &cfg.Reports.DailyAt)
	e.list("REPORT_FORMATS", &cfg.Reports.Formats)

	e.duration("LIVE_INTERVAL", &cfg.Live.Interval)
	e.str("LOG_LEVEL", &cfg.LogLevel)
}

func (e *environment) lookup(key string) (string, bool) {
	value := strings.TrimSpace(e.getenv(key))
	return value, value != ""
}

func (e *environment) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
}

func (e *environment) str(key string, dst *string) {
	if value, ok := e.lookup(key); ok {
		*dst = value
	}
}

func (e *environment) integer(key string, dst *int) {
	if value, ok := e.lookup(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = parsed
	}
}

func (e *environment) boolean(key string, dst *bool) {
	if value, ok := e.lookup(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = parsed
	}
}

func (e *environment) duration(key string, dst *time.Duration) {
	if value, ok := e.lookup(key); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = parsed
	}
}

func (e *environment) list(key string, dst *[]string) {
	if value, ok := e.lookup(key); ok {
		*dst = splitCSV(value)
	}
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
