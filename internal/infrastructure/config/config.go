// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const developmentJWTSecret = "gourmet-guru-development-secret"

// Config holds all application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Recipes     RecipesConfig     `mapstructure:"recipes"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Composer    ComposerConfig    `mapstructure:"composer"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`

	v *viper.Viper
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	EnableCORS        bool          `mapstructure:"enable_cors"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// DatabaseConfig contains SQL database configuration
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	Replicas           []string      `mapstructure:"replicas"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
}

// MongoConfig contains document store configuration
type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Password      string        `mapstructure:"password"`
	Database      int           `mapstructure:"database"`
	MaxRetries    int           `mapstructure:"max_retries"`
	PoolSize      int           `mapstructure:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableCluster bool          `mapstructure:"enable_cluster"`
	ClusterNodes  []string      `mapstructure:"cluster_nodes"`
}

// PersistenceConfig selects the saved-recipe backend
type PersistenceConfig struct {
	SavedStore string `mapstructure:"saved_store"`
}

// RecipesConfig configures the recipe provider client
type RecipesConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKeys           []string      `mapstructure:"api_keys"`
	APIKey1           string        `mapstructure:"api_key_1"`
	APIKey2           string        `mapstructure:"api_key_2"`
	ResultLimit       int           `mapstructure:"result_limit"`
	AutocompleteLimit int           `mapstructure:"autocomplete_limit"`
	Timeout           time.Duration `mapstructure:"timeout"`
	EnableCache       bool          `mapstructure:"enable_cache"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// Keys returns the configured provider keys in rotation order, skipping
// blanks and duplicates.
func (r RecipesConfig) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, k := range append(append([]string{}, r.APIKeys...), r.APIKey1, r.APIKey2) {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTExpiration     time.Duration `mapstructure:"jwt_expiration"`
	Issuer            string        `mapstructure:"issuer"`
	BCryptCost        int           `mapstructure:"bcrypt_cost"`
	MinPasswordLength int           `mapstructure:"min_password_length"`
}

// ComposerConfig configures the live search composer
type ComposerConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	ReadinessPath   string  `mapstructure:"readiness_path"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
}

// Load loads configuration from .env, an optional config file and
// environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/gourmetguru")
	}

	v.SetEnvPrefix("GOURMET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys also accepted under the names the browser build used.
	_ = v.BindEnv("recipes.api_key_1", "GOURMET_RECIPES_API_KEY_1", "SPOONACULAR_API_KEY_1")
	_ = v.BindEnv("recipes.api_key_2", "GOURMET_RECIPES_API_KEY_2", "SPOONACULAR_API_KEY_2")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.v = v

	if config.Auth.JWTSecret == "" && !config.IsProduction() {
		config.Auth.JWTSecret = developmentJWTSecret
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// OnChange watches the config file, if one was read, and calls fn with the
// re-decoded configuration after every write. Invalid edits are reported
// through onError and leave the previous configuration in effect.
func (c *Config) OnChange(fn func(*Config), onError func(error)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(c.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(next)
	})
	c.v.WatchConfig()
	return true
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Gourmet Guru")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.enable_compression", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "gourmetguru.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "gourmetguru")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.replicas", []string{})
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "gourmetguru")
	v.SetDefault("mongo.timeout", "10s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.enable_cluster", false)
	v.SetDefault("redis.cluster_nodes", []string{})

	v.SetDefault("persistence.saved_store", "sql")

	v.SetDefault("recipes.base_url", "https://api.spoonacular.com")
	v.SetDefault("recipes.api_keys", []string{})
	v.SetDefault("recipes.api_key_1", "")
	v.SetDefault("recipes.api_key_2", "")
	v.SetDefault("recipes.result_limit", 12)
	v.SetDefault("recipes.autocomplete_limit", 5)
	v.SetDefault("recipes.timeout", "10s")
	v.SetDefault("recipes.enable_cache", true)
	v.SetDefault("recipes.cache_ttl", "10m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration", "24h")
	v.SetDefault("auth.issuer", "gourmetguru")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.min_password_length", 6)

	v.SetDefault("composer.debounce", "300ms")

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "")
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.readiness_path", "/ready")

	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 600)
	v.SetDefault("rate_limit.burst_size", 50)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	switch c.Persistence.SavedStore {
	case "sql":
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required when persistence.saved_store is mongo")
		}
	default:
		return fmt.Errorf("persistence.saved_store must be sql or mongo, got %q", c.Persistence.SavedStore)
	}

	if c.Recipes.ResultLimit < 1 {
		return fmt.Errorf("recipes.result_limit must be positive")
	}

	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("auth.min_password_length must be positive")
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		if len(c.Recipes.Keys()) == 0 {
			return fmt.Errorf("at least one recipe provider API key is required in production")
		}
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// ReplicaDSN returns the connection string of a read replica on host,
// sharing the primary's credentials
func (c *Config) ReplicaDSN(host string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port of the primary Redis node
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
