package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
	Display   DisplayConfig   `mapstructure:"display"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	RateLimit    int `mapstructure:"rate_limit"` // requests per minute per IP

	// AdminToken guards the write endpoints. Empty leaves them open.
	AdminToken string `mapstructure:"admin_token"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps places in
	// process and is meant for local development.
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   uint64        `mapstructure:"max_retries"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DisplayConfig controls how place cards render distance and status labels.
type DisplayConfig struct {
	DefaultUnit        string `mapstructure:"default_unit"`
	PrecisionKm        int    `mapstructure:"precision_km"`
	PrecisionMi        int    `mapstructure:"precision_mi"`
	ClosingSoonMinutes int    `mapstructure:"closing_soon_minutes"`
}

// ClosingSoonWindow returns the closing-soon threshold as a duration.
func (d DisplayConfig) ClosingSoonWindow() time.Duration {
	return time.Duration(d.ClosingSoonMinutes) * time.Minute
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wanderly")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "wanderly")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.key_prefix", "wanderly:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.sync_interval", "15m")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "place-import")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("display.default_unit", "metric")
	v.SetDefault("display.precision_km", 1)
	v.SetDefault("display.precision_mi", 1)
	v.SetDefault("display.closing_soon_minutes", 60)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: WANDERLY_DATABASE_HOST → database.host
	v.SetEnvPrefix("WANDERLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, "server.rate_limit must be positive")
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be postgres or memory, got %q", c.Database.Driver))
	}

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, "upstream.timeout must be positive")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	switch strings.ToLower(c.Display.DefaultUnit) {
	case "metric", "imperial":
	default:
		errs = append(errs, fmt.Sprintf("display.default_unit must be metric or imperial, got %q", c.Display.DefaultUnit))
	}
	if c.Display.PrecisionKm < 0 || c.Display.PrecisionKm > 6 {
		errs = append(errs, "display.precision_km must be 0-6")
	}
	if c.Display.PrecisionMi < 0 || c.Display.PrecisionMi > 6 {
		errs = append(errs, "display.precision_mi must be 0-6")
	}
	if c.Display.ClosingSoonMinutes < 0 {
		errs = append(errs, "display.closing_soon_minutes must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
