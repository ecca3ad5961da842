package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendSurreal   = "surreal"
	BackendSQL       = "sql"
	BackendMongo     = "mongo"
	BackendReindexer = "reindexer"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Schema      SchemaConfig      `mapstructure:"schema"`
	Database    DatabaseConfig    `mapstructure:"surreal"`
	SQL         SQLConfig         `mapstructure:"sql"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Reindexer   ReindexerConfig   `mapstructure:"reindexer"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	LogLevel       string        `mapstructure:"log_level"`
}

// StoreConfig selects the storage backend
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// SchemaConfig locates the model schema file
type SchemaConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
}

// SQLConfig holds settings for the bun-backed SQL store
type SQLConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	QueryLog bool   `mapstructure:"query_log"`
}

// MongoConfig holds MongoDB settings
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// ReindexerConfig holds Reindexer settings
type ReindexerConfig struct {
	DSN       string `mapstructure:"dsn"`
	Namespace string `mapstructure:"namespace"`
}

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	Rate   int           `mapstructure:"rate"`
	Window time.Duration `mapstructure:"window"`
	Burst  int           `mapstructure:"burst"`
}

// IdempotencyConfig holds Idempotency-Key replay settings
type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

var defaults = map[string]any{
	"server.port":            "8080",
	"server.env":             "development",
	"server.read_timeout":    15 * time.Second,
	"server.write_timeout":   15 * time.Second,
	"server.allowed_origins": []string{"http://localhost:3000"},
	"server.log_level":       "info",

	"store.backend": BackendSurreal,
	"schema.path":   "configs/models.yaml",

	"surreal.host":      "localhost",
	"surreal.port":      "8000",
	"surreal.namespace": "odm",
	"surreal.database":  "main",
	"surreal.user":      "root",
	"surreal.password":  "root",

	"sql.type":      "sqlite",
	"sql.host":      "localhost",
	"sql.port":      0,
	"sql.user":      "",
	"sql.password":  "",
	"sql.name":      "odm",
	"sql.sslmode":   "disable",
	"sql.query_log": false,

	"mongo.uri":      "mongodb://localhost:27017",
	"mongo.database": "odm",

	"reindexer.dsn":       "cproto://localhost:6534/odm",
	"reindexer.namespace": "entities",

	"ratelimit.rate":   100,
	"ratelimit.window": time.Minute,
	"ratelimit.burst":  20,

	"idempotency.ttl": 24 * time.Hour,
}

var envBindings = map[string]string{
	"server.port":            "SERVER_PORT",
	"server.env":             "SERVER_ENV",
	"server.read_timeout":    "SERVER_READ_TIMEOUT",
	"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
	"server.allowed_origins": "CORS_ALLOWED_ORIGINS",
	"server.log_level":       "LOG_LEVEL",

	"store.backend": "STORE_BACKEND",
	"schema.path":   "SCHEMA_PATH",

	"surreal.host":      "DB_HOST",
	"surreal.port":      "DB_PORT",
	"surreal.namespace": "DB_NAMESPACE",
	"surreal.database":  "DB_DATABASE",
	"surreal.user":      "DB_USER",
	"surreal.password":  "DB_PASSWORD",

	"sql.type":      "SQL_TYPE",
	"sql.host":      "SQL_HOST",
	"sql.port":      "SQL_PORT",
	"sql.user":      "SQL_USER",
	"sql.password":  "SQL_PASSWORD",
	"sql.name":      "SQL_NAME",
	"sql.sslmode":   "SQL_SSLMODE",
	"sql.query_log": "SQL_QUERY_LOG",

	"mongo.uri":      "MONGO_URI",
	"mongo.database": "MONGO_DATABASE",

	"reindexer.dsn":       "REINDEXER_DSN",
	"reindexer.namespace": "REINDEXER_NAMESPACE",

	"ratelimit.rate":   "RATE_LIMIT_RATE",
	"ratelimit.window": "RATE_LIMIT_WINDOW",
	"ratelimit.burst":  "RATE_LIMIT_BURST",

	"idempotency.ttl": "IDEMPOTENCY_TTL",
}

// Load reads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	return &cfg, nil
}

// splitOrigins accepts both a YAML list and a comma-separated env value.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for o := range strings.SplitSeq(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT must be positive"))
	}

	if c.Schema.Path == "" {
		errs = append(errs, errors.New("SCHEMA_PATH is required"))
	}

	// Backend validation
	switch c.Store.Backend {
	case BackendSurreal:
		errs = append(errs, c.Database.validate()...)
	case BackendSQL:
		errs = append(errs, c.SQL.validate()...)
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required"))
		}
		if c.Mongo.Database == "" {
			errs = append(errs, errors.New("MONGO_DATABASE is required"))
		}
	case BackendReindexer:
		if c.Reindexer.DSN == "" {
			errs = append(errs, errors.New("REINDEXER_DSN is required"))
		}
		if c.Reindexer.Namespace == "" {
			errs = append(errs, errors.New("REINDEXER_NAMESPACE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of surreal, sql, mongo, reindexer, got '%s'", c.Store.Backend))
	}

	// Middleware validation
	if c.RateLimit.Rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must not be negative"))
	}
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (d DatabaseConfig) validate() []error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if d.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if d.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if d.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	return errs
}

var sqlTypes = []string{"sqlite", "postgres", "mysql"}

func (s SQLConfig) validate() []error {
	var errs []error
	if !slices.Contains(sqlTypes, s.Type) {
		errs = append(errs, fmt.Errorf("SQL_TYPE must be one of %s, got '%s'", strings.Join(sqlTypes, ", "), s.Type))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("SQL_NAME is required"))
	}
	if s.Type != "sqlite" && s.Host == "" {
		errs = append(errs, fmt.Errorf("SQL_HOST is required for %s", s.Type))
	}
	return errs
}
