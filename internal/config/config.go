package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Logging     LoggingConfig   `yaml:"logging"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Tracing     TracingConfig   `yaml:"tracing"`
	Calendar    CalendarConfig  `yaml:"calendar"`
	Environment string          `yaml:"environment"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RateLimitConfig struct {
	PublicPerMinute   int      `yaml:"public_per_minute"`
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

type CalendarConfig struct {
	// Timezone decides which calendar day "today" is. Empty or "Local"
	// means the process zone.
	Timezone string `yaml:"timezone"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "127.0.0.1"),
			Port:         getEnvInt("SERVER_PORT", 5000),
			MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", "sqlite://myevents.sqlite"),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 0),
			TrustedProxyCIDRs: getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "eventcal"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Calendar: CalendarConfig{
			Timezone: getEnv("CALENDAR_TIMEZONE", "Local"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("SERVER_HOST must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	driver, err := c.Database.Driver()
	if err != nil {
		return err
	}
	if driver == DriverSQLite {
		if _, err := c.Database.SQLiteParams(); err != nil {
			return fmt.Errorf("DATABASE_URL query: %w", err)
		}
	}
	if c.RateLimit.PublicPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PUBLIC must not be negative")
	}
	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("CALENDAR_TIMEZONE: %w", err)
	}
	return nil
}

// Addr is the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SetListenAddress applies a host:port argument. An empty host keeps the
// configured one.
func (c *Config) SetListenAddress(value string) error {
	host, portValue, err := net.SplitHostPort(value)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", value, err)
	}
	port, err := strconv.Atoi(portValue)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid listen address %q: port must be between 1 and 65535", value)
	}
	if host != "" {
		c.Server.Host = host
	}
	c.Server.Port = port
	return nil
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Driver maps the DATABASE_URL scheme to a storage backend.
func (c DatabaseConfig) Driver() (string, error) {
	scheme, _, ok := strings.Cut(c.URL, "://")
	if !ok {
		return "", fmt.Errorf("DATABASE_URL must include a scheme (sqlite:// or postgres://)")
	}
	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("DATABASE_URL scheme %q is not supported", scheme)
	}
}

// SQLitePath returns the file path of a sqlite:// URL, without its query.
func (c DatabaseConfig) SQLitePath() string {
	_, rest, _ := strings.Cut(c.URL, "://")
	path, _, _ := strings.Cut(rest, "?")
	return path
}

// SQLiteParams returns the query of a sqlite:// URL (mode=ro, _pragma=...).
func (c DatabaseConfig) SQLiteParams() (url.Values, error) {
	_, rest, _ := strings.Cut(c.URL, "://")
	_, query, _ := strings.Cut(rest, "?")
	return url.ParseQuery(query)
}

func (c CalendarConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
