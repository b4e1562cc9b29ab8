package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/store-recommender/internal/catalog"
	"github.com/kosarica/store-recommender/internal/fetch"
	"github.com/kosarica/store-recommender/internal/recommender"
	"github.com/kosarica/store-recommender/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. STORE_RECOMMENDER_SERVER_PORT.
const EnvPrefix = "STORE_RECOMMENDER"

// Config holds the application configuration
type Config struct {
	Server      ServerConfig       `mapstructure:"server"`
	GRPC        GRPCConfig         `mapstructure:"grpc"`
	Database    DatabaseConfig     `mapstructure:"database"`
	Redis       RedisConfig        `mapstructure:"redis"`
	Storage     StorageConfig      `mapstructure:"storage"`
	Recommender recommender.Config `mapstructure:"recommender"`
	RateLimit   RateLimitConfig    `mapstructure:"rate_limit"`
	Fetch       fetch.Config       `mapstructure:"fetch"`
	Logging     LoggingConfig      `mapstructure:"logging"`
	Telemetry   telemetry.Config   `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// APIKey guards write routes when set
	APIKey string `mapstructure:"api_key"`
}

// GRPCConfig holds the gRPC health server configuration
type GRPCConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Port          int           `mapstructure:"port"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// StorageConfig selects the catalog backend
type StorageConfig struct {
	Type    string `mapstructure:"type"` // memory, postgres, pq, mysql, sqlite, redis
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WritesPerSecond   float64       `mapstructure:"writes_per_second"`
	WriteBurst        int           `mapstructure:"write_burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env found without overriding variables
// that are already set.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config", ".."} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("redis.addr", EnvPrefix+"_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", EnvPrefix+"_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")
	v.BindEnv("server.api_key", EnvPrefix+"_SERVER_API_KEY", "INTERNAL_API_KEY")
	v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")
	v.BindEnv("storage.type", EnvPrefix+"_STORAGE_TYPE", "STORAGE_TYPE")
	v.BindEnv("storage.dsn", EnvPrefix+"_STORAGE_DSN", "STORAGE_DSN")
	v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.api_key", "")

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.check_interval", 10*time.Second)

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recommender:")

	v.SetDefault("storage.type", catalog.TypeMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.migrate", true)

	// Recommender defaults
	d := recommender.Defaults()
	v.SetDefault("recommender.default_radius_km", d.DefaultRadiusKm)
	v.SetDefault("recommender.workers", d.Workers)
	v.SetDefault("recommender.lookup_concurrency", d.LookupConcurrency)
	v.SetDefault("recommender.lookup_timeout", d.LookupTimeout)
	v.SetDefault("recommender.max_list_items", d.MaxListItems)
	v.SetDefault("recommender.recommendation_policy", d.RecommendationPolicy)
	v.SetDefault("recommender.comparison_policy", d.ComparisonPolicy)
	v.SetDefault("recommender.breaker_max_failures", d.BreakerMaxFailures)
	v.SetDefault("recommender.breaker_reset_timeout", d.BreakerResetTimeout)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.idle_timeout", 5*time.Minute)
	v.SetDefault("rate_limit.writes_per_second", 50)
	v.SetDefault("rate_limit.write_burst", 100)

	// Remote import downloads
	f := fetch.DefaultConfig()
	v.SetDefault("fetch.requests_per_second", f.RequestsPerSecond)
	v.SetDefault("fetch.max_retries", f.MaxRetries)
	v.SetDefault("fetch.initial_backoff", f.InitialBackoff)
	v.SetDefault("fetch.max_backoff", f.MaxBackoff)
	v.SetDefault("fetch.timeout", f.Timeout)
	v.SetDefault("fetch.max_bytes", f.MaxBytes)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.metric_interval", 30*time.Second)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535 || c.GRPC.Port == c.Server.Port) {
		return fmt.Errorf("invalid grpc.port %d", c.GRPC.Port)
	}
	switch strings.ToLower(c.Storage.Type) {
	case catalog.TypeMemory, catalog.TypeRedis:
	case catalog.TypePostgres, catalog.TypePQ:
		if c.StorageDSN() == "" {
			return fmt.Errorf("storage.type %s needs storage.dsn or DATABASE_URL", c.Storage.Type)
		}
	case catalog.TypeMySQL, catalog.TypeSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.type %s needs storage.dsn", c.Storage.Type)
		}
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	if err := c.Recommender.Validate(); err != nil {
		return err
	}
	return nil
}

// StorageDSN returns storage.dsn, falling back to database.url for the
// Postgres backends.
func (c *Config) StorageDSN() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	switch strings.ToLower(c.Storage.Type) {
	case catalog.TypePostgres, catalog.TypePQ:
		return c.Database.URL
	}
	return ""
}

// CatalogOptions maps the storage, database and redis sections onto catalog.Open.
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		Type:            strings.ToLower(c.Storage.Type),
		DSN:             c.StorageDSN(),
		MaxConns:        c.Database.MaxConnections,
		MinConns:        c.Database.MinConnections,
		MaxConnLifetime: c.Database.MaxConnLifetime,
		MaxConnIdleTime: c.Database.MaxConnIdleTime,
		RedisAddr:       c.Redis.Addr,
		RedisPassword:   c.Redis.Password,
		RedisDB:         c.Redis.DB,
		RedisPrefix:     c.Redis.KeyPrefix,
		Migrate:         c.Storage.Migrate,
	}
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
