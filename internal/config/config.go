package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/worker"
)

// EnvPrefix is the prefix of environment overrides, e.g. CLINIC_SERVER_PORT.
const EnvPrefix = "CLINIC"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" envconfig:"server"`
	Database  DatabaseConfig  `mapstructure:"database" envconfig:"database"`
	JWT       JWTConfig       `mapstructure:"jwt" envconfig:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis" envconfig:"redis"`
	Outbox    OutboxConfig    `mapstructure:"outbox" envconfig:"outbox"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" envconfig:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors" envconfig:"cors"`
	Log       LogConfig       `mapstructure:"log" envconfig:"log"`
	Settings  SettingsConfig  `mapstructure:"settings" envconfig:"settings"`
	Payroll   PayrollConfig   `mapstructure:"payroll" envconfig:"payroll"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" envconfig:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" envconfig:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" envconfig:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"shutdown_timeout"`
	MetricsPrefix   string        `mapstructure:"metrics_prefix" envconfig:"metrics_prefix"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" envconfig:"host"`
	Port            int           `mapstructure:"port" envconfig:"port"`
	User            string        `mapstructure:"user" envconfig:"user"`
	Password        string        `mapstructure:"password" envconfig:"password"`
	Name            string        `mapstructure:"name" envconfig:"name"`
	SSLMode         string        `mapstructure:"sslmode" envconfig:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"conn_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"secret"`
	Issuer      string `mapstructure:"issuer" envconfig:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"expiry_hours"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"url"`
	Channel      string        `mapstructure:"channel" envconfig:"channel"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" envconfig:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval" envconfig:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts" envconfig:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" envconfig:"retry_delay"`
	// Processed events older than Retention are deleted every CleanupInterval.
	Retention       time.Duration `mapstructure:"retention" envconfig:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"cleanup_interval"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" envconfig:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"requests_per_second"`
	Burst             int     `mapstructure:"burst" envconfig:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" envconfig:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"level"`
	Format string `mapstructure:"format" envconfig:"format"`
}

// SettingsConfig seeds practice settings when the settings row is missing.
type SettingsConfig struct {
	AppName  string        `mapstructure:"app_name" envconfig:"app_name"`
	Currency string        `mapstructure:"currency" envconfig:"currency"`
	Timezone string        `mapstructure:"timezone" envconfig:"timezone"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" envconfig:"cache_ttl"`
}

type PayrollConfig struct {
	Enabled  bool   `mapstructure:"enabled" envconfig:"enabled"`
	Schedule string `mapstructure:"schedule" envconfig:"schedule"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.metrics_prefix", "clinic_api")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("jwt.issuer", "clinic-api")
	v.SetDefault("jwt.expiry_hours", 12)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "clinic.events")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 2*time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("settings.app_name", "Clinic")
	v.SetDefault("settings.currency", "USD")
	v.SetDefault("settings.timezone", "UTC")
	v.SetDefault("settings.cache_ttl", 5*time.Minute)

	v.SetDefault("payroll.enabled", true)
	v.SetDefault("payroll.schedule", "0 2 1 * *")
}

// LoadConfig reads config.yaml from the usual locations, then applies
// CLINIC_* environment overrides. A missing config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the services cannot run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox batch_size and poll_interval must be positive")
	}
	if c.Outbox.RetryAttempts <= 0 || c.Outbox.RetryDelay <= 0 {
		return fmt.Errorf("outbox retry_attempts and retry_delay must be positive")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt.expiry_hours must be positive")
	}
	if _, err := time.LoadLocation(c.Settings.Timezone); err != nil {
		return fmt.Errorf("settings.timezone: %w", err)
	}
	return nil
}

// RequireSecret reports an error when no JWT signing secret is configured.
// Only the API needs one, so it is checked separately from Validate.
func (c *Config) RequireSecret() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (set %s_JWT_SECRET)", EnvPrefix)
	}
	return nil
}

func (c *Config) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: c.Redis.RetryBackoff,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}

func (c *Config) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		Channel:       c.Redis.Channel,
		BatchSize:     c.Outbox.BatchSize,
		PollInterval:  c.Outbox.PollInterval,
		RetryAttempts: c.Outbox.RetryAttempts,
		RetryDelay:    c.Outbox.RetryDelay,
	}
}

// DefaultSettings are served until a settings row is stored.
func (c *Config) DefaultSettings() model.Settings {
	return model.Settings{
		AppName:  c.Settings.AppName,
		Currency: c.Settings.Currency,
		Timezone: c.Settings.Timezone,
	}
}
