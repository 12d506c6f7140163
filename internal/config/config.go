package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	applog "walletstats/internal/log"
)

// FileEnvVar names the optional TOML file read before the environment.
const FileEnvVar = "WALLETSTATS_CONFIG"

type Config struct {
	// HTTP Server
	Port string
	// RateLimitPerMinute caps requests per client IP; 0 disables limiting.
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are believed; nil uses
	// loopback and private networks.
	TrustedProxies []string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath   string
	PostgresDSN    string
	MemorySeedFile string

	// AMQP; consumption is disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Reports
	ReportTimezone  string
	ReportTimeout   time.Duration
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// Observability
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

// fileConfig mirrors Config in the TOML file. Empty values keep the defaults.
type fileConfig struct {
	Port        string `toml:"port"`
	DataBackend string `toml:"data_backend"`

	HTTP struct {
		RateLimitPerMinute *int     `toml:"rate_limit_per_minute"`
		TrustedProxies     []string `toml:"trusted_proxies"`
	} `toml:"http"`

	SQLite struct {
		Path string `toml:"path"`
	} `toml:"sqlite"`
	Postgres struct {
		DSN string `toml:"dsn"`
	} `toml:"postgres"`
	Memory struct {
		SeedFile string `toml:"seed_file"`
	} `toml:"memory"`

	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`

	Report struct {
		Timezone  string `toml:"timezone"`
		Timeout   string `toml:"timeout"`
		CacheSize int    `toml:"cache_size"`
		CacheTTL  string `toml:"cache_ttl"`
	} `toml:"report"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`

	Metrics struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"metrics"`
}

func defaults() *Config {
	return &Config{
		Port:               "8080",
		RateLimitPerMinute: 120,
		DataBackend:        "memory",
		SQLiteDBPath:       "./data/walletstats.db",
		AMQPExchange:       "ledger",
		AMQPQueue:          "walletstats.ledger_changes",
		ReportTimezone:     "UTC",
		ReportTimeout:      7 * time.Second,
		ReportCacheSize:    1024,
		ReportCacheTTL:     time.Minute,
		LogLevel:           "info",
		LogFormat:          "text",
		MetricsEnabled:     true,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// WALLETSTATS_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.TrustedProxies = getEnvList("TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.MemorySeedFile = getEnv("MEMORY_SEED_FILE", cfg.MemorySeedFile)

	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)

	cfg.ReportTimezone = getEnv("REPORT_TIMEZONE", cfg.ReportTimezone)
	cfg.ReportTimeout = getEnvDuration("REPORT_TIMEOUT", cfg.ReportTimeout)
	cfg.ReportCacheSize = getEnvInt("REPORT_CACHE_SIZE", cfg.ReportCacheSize)
	cfg.ReportCacheTTL = getEnvDuration("REPORT_CACHE_TTL", cfg.ReportCacheTTL)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var f fileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	setString(&c.Port, f.Port)
	setString(&c.DataBackend, f.DataBackend)
	setString(&c.SQLiteDBPath, f.SQLite.Path)
	setString(&c.PostgresDSN, f.Postgres.DSN)
	setString(&c.MemorySeedFile, f.Memory.SeedFile)
	setString(&c.AMQPURL, f.AMQP.URL)
	setString(&c.AMQPExchange, f.AMQP.Exchange)
	setString(&c.AMQPQueue, f.AMQP.Queue)
	setString(&c.ReportTimezone, f.Report.Timezone)
	setString(&c.LogLevel, f.Log.Level)
	setString(&c.LogFormat, f.Log.Format)

	if f.HTTP.RateLimitPerMinute != nil {
		c.RateLimitPerMinute = *f.HTTP.RateLimitPerMinute
	}
	if f.HTTP.TrustedProxies != nil {
		c.TrustedProxies = f.HTTP.TrustedProxies
	}
	if f.Report.CacheSize != 0 {
		c.ReportCacheSize = f.Report.CacheSize
	}
	if f.Metrics.Enabled != nil {
		c.MetricsEnabled = *f.Metrics.Enabled
	}

	var err error
	if c.ReportTimeout, err = parseDurationOr(f.Report.Timeout, c.ReportTimeout); err != nil {
		return fmt.Errorf("config file %s: report.timeout: %w", path, err)
	}
	if c.ReportCacheTTL, err = parseDurationOr(f.Report.CacheTTL, c.ReportCacheTTL); err != nil {
		return fmt.Errorf("config file %s: report.cache_ttl: %w", path, err)
	}
	return nil
}

// Location resolves ReportTimezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReportTimezone)
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
	case "memory":
		if c.MemorySeedFile != "" {
			if _, err := os.Stat(c.MemorySeedFile); err != nil {
				errors = append(errors, fmt.Sprintf("memory seed file not readable: %s", c.MemorySeedFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
	}
	if c.ReportTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid report timeout %v: must be at least 100ms", c.ReportTimeout))
	} else if c.ReportTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid report timeout %v: must be at most 5 minutes", c.ReportTimeout))
	}
	if c.ReportCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must not be negative", c.ReportCacheSize))
	}
	if c.ReportCacheSize > 0 && c.ReportCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be positive when caching is enabled", c.ReportCacheTTL))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if _, err := applog.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseDurationOr(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
