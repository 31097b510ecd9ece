package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            struct {
			Enabled      bool          `yaml:"enabled"`
			AllowOrigins []string      `yaml:"allow_origins"`
			MaxAge       time.Duration `yaml:"max_age"`
		} `yaml:"cors"`
		Throttle struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"throttle"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Ephemeris struct {
		BaseURL    string        `yaml:"base_url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"ephemeris"`
	Geo struct {
		NominatimURL      string        `yaml:"nominatim_url"`
		TimezoneURL       string        `yaml:"timezone_url"`
		ElevationURL      string        `yaml:"elevation_url"`
		UserAgent         string        `yaml:"user_agent"`
		Timeout           time.Duration `yaml:"timeout"`
		MaxRetries        int           `yaml:"max_retries"`
		RetryDelay        time.Duration `yaml:"retry_delay"`
		GeocodeInterval   time.Duration `yaml:"geocode_interval"`
		TimezoneInterval  time.Duration `yaml:"timezone_interval"`
		ElevationInterval time.Duration `yaml:"elevation_interval"`
		CacheSize         int           `yaml:"cache_size"`
	} `yaml:"geo"`
	Redis struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix"`
		TTL          time.Duration `yaml:"ttl"`
		PoolSize     int           `yaml:"pool_size"`
		MinIdleConns int           `yaml:"min_idle_conns"`
		PoolTimeout  time.Duration `yaml:"pool_timeout"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BatchSize    int           `yaml:"batch_size"`
		BatchBytes   int           `yaml:"batch_bytes"`
		Linger       time.Duration `yaml:"linger"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Scanner struct {
		Workers              int     `yaml:"workers"`
		MaxRangeDays         int     `yaml:"max_range_days"`
		DefaultOrbMultiplier float64 `yaml:"default_orb_multiplier"`
	} `yaml:"scanner"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Parse decodes YAML, fills unset fields with defaults and validates.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Validation runs after the overrides, so required values may come from env.
func LoadWithEnv(path string) (*Config, error) {
	c, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func decodeFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(b)
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("EPHEMERIS_URL"); v != "" {
		c.Ephemeris.BaseURL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("REDIS_ADDR: invalid port %q", port)
			}
			c.Redis.Port = p
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if len(c.Server.CORS.AllowOrigins) == 0 {
		c.Server.CORS.AllowOrigins = []string{"*"}
	}
	if c.Server.Throttle.Capacity == 0 {
		c.Server.Throttle.Capacity = 10
	}
	if c.Server.Throttle.RefillPerSec == 0 {
		c.Server.Throttle.RefillPerSec = 1
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Ephemeris.Timeout == 0 {
		c.Ephemeris.Timeout = 30 * time.Second
	}
	if c.Ephemeris.MaxRetries == 0 {
		c.Ephemeris.MaxRetries = 2
	}
	if c.Geo.NominatimURL == "" {
		c.Geo.NominatimURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geo.TimezoneURL == "" {
		c.Geo.TimezoneURL = "https://timeapi.io/api/TimeZone/coordinate"
	}
	if c.Geo.ElevationURL == "" {
		c.Geo.ElevationURL = "https://api.open-elevation.com/api/v1/lookup"
	}
	if c.Geo.UserAgent == "" {
		c.Geo.UserAgent = "astro-api/1.0"
	}
	if c.Geo.Timeout == 0 {
		c.Geo.Timeout = 10 * time.Second
	}
	if c.Geo.MaxRetries == 0 {
		c.Geo.MaxRetries = 3
	}
	if c.Geo.RetryDelay == 0 {
		c.Geo.RetryDelay = 2 * time.Second
	}
	if c.Geo.GeocodeInterval == 0 {
		c.Geo.GeocodeInterval = 1100 * time.Millisecond
	}
	if c.Geo.TimezoneInterval == 0 {
		c.Geo.TimezoneInterval = time.Second
	}
	if c.Geo.ElevationInterval == 0 {
		c.Geo.ElevationInterval = time.Second
	}
	if c.Geo.CacheSize == 0 {
		c.Geo.CacheSize = 1000
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "astro"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 7 * 24 * time.Hour
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.PoolTimeout == 0 {
		c.Redis.PoolTimeout = 30 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "astro.transit-scans"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = 4
	}
	if c.Scanner.MaxRangeDays == 0 {
		c.Scanner.MaxRangeDays = 366
	}
	if c.Scanner.DefaultOrbMultiplier == 0 {
		c.Scanner.DefaultOrbMultiplier = 1.0
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Ephemeris.BaseURL == "" {
		return fmt.Errorf("ephemeris.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Ephemeris.BaseURL); err != nil {
		return fmt.Errorf("ephemeris.base_url is invalid: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Geo.CacheSize < 1 {
		return fmt.Errorf("geo.cache_size must be positive")
	}
	if c.Geo.MaxRetries < 1 {
		return fmt.Errorf("geo.max_retries must be at least 1")
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("scanner.workers must be at least 1")
	}
	if c.Scanner.DefaultOrbMultiplier <= 0 {
		return fmt.Errorf("scanner.default_orb_multiplier must be positive")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
