package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Auth      AuthConfig
	Downloads DownloadsConfig
	Browser   BrowserConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds the session cache configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// QueueConfig holds the worker hand-off queue configuration
type QueueConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// AuthConfig holds session settings
type AuthConfig struct {
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	SecureCookie   bool
	LoginRateLimit int
	LoginBurst     int
}

// DownloadsConfig holds download validation settings
type DownloadsConfig struct {
	AllowedHosts []string
}

// BrowserConfig holds file browser settings
type BrowserConfig struct {
	Root string
}

// MetricsConfig holds Prometheus exporter settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds Jaeger settings
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.sessionTTL must be positive")
	}
	if c.Auth.SweepInterval <= 0 {
		return fmt.Errorf("auth.sweepInterval must be positive")
	}
	if c.Auth.LoginRateLimit <= 0 || c.Auth.LoginBurst <= 0 {
		return fmt.Errorf("auth.loginRateLimit and auth.loginBurst must be positive")
	}
	if len(c.Downloads.AllowedHosts) == 0 {
		return fmt.Errorf("downloads.allowedHosts must not be empty")
	}
	if strings.TrimSpace(c.Browser.Root) == "" {
		return fmt.Errorf("browser.root is required")
	}
	return nil
}

// DSN builds the pgx connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_min_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		c.MaxConns, c.MinConns,
	)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "downloader")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 2)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cacheTTL", "15m")

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")

	// Auth defaults
	v.SetDefault("auth.sessionTTL", "720h") // 30 days
	v.SetDefault("auth.sweepInterval", "1h")
	v.SetDefault("auth.secureCookie", true)
	v.SetDefault("auth.loginRateLimit", 1)
	v.SetDefault("auth.loginBurst", 5)

	// Downloads defaults
	v.SetDefault("downloads.allowedHosts", []string{"1fichier.com"})

	// Browser defaults
	v.SetDefault("browser.root", "/data")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "downloader-api")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}
