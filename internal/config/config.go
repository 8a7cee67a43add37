// Package config loads runtime settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the variable pointing at an optional YAML config file.
const FileEnv = "EXERCISE_CONFIG_FILE"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Exercises ExercisesConfig `yaml:"exercises"`
	HTTP      HTTPConfig      `yaml:"http"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"` // seconds
	MigrateOnStart  bool   `yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI"`
	Database string `yaml:"database" env:"MONGO_DATABASE"`
}

// RedisConfig enables the shared id allocator when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
}

type ExercisesConfig struct {
	// LogOrder is "insertion" or "date_desc".
	LogOrder string `yaml:"log_order" env:"EXERCISE_LOG_ORDER"`
}

type HTTPConfig struct {
	CORSOrigins      string        `yaml:"cors_origins" env:"CORS_ALLOWED_ORIGINS"`
	RateLimit        int           `yaml:"rate_limit" env:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	LimiterSweep     time.Duration `yaml:"limiter_sweep" env:"RATE_LIMIT_SWEEP_INTERVAL"`
	LimiterIdleAfter time.Duration `yaml:"limiter_idle_after" env:"RATE_LIMIT_IDLE_AFTER"`
	Tracing          bool          `yaml:"tracing" env:"HTTP_TRACING"`
}

// Origins splits CORSOrigins on commas, dropping blanks.
func (c HTTPConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			FilePrefix: "exercise-tracker",
		},
		Storage:  StorageConfig{Backend: BackendMemory},
		Database: DatabaseConfig{Driver: "postgres", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 300},
		Mongo:    MongoConfig{Database: "exercise_tracker"},
		Exercises: ExercisesConfig{
			LogOrder: "insertion",
		},
		HTTP: HTTPConfig{
			CORSOrigins:      "*",
			RateLimit:        50,
			RateLimitBurst:   100,
			LimiterSweep:     time.Minute,
			LimiterIdleAfter: 10 * time.Minute,
			Tracing:          true,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// EXERCISE_CONFIG_FILE, then environment variables (a .env file is read
// first when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the runtime cannot honour.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("postgres backend requires database dsn")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo backend requires mongo uri")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("mongo backend requires a database name")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Exercises.LogOrder {
	case "insertion", "date_desc":
	default:
		return fmt.Errorf("unknown exercise log order %q", c.Exercises.LogOrder)
	}

	if c.HTTP.RateLimit < 0 || c.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}
