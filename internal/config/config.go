package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mailer   MailerConfig   `yaml:"mailer"`
	Tracking TrackingConfig `yaml:"tracking"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	BaseURL     string `yaml:"base_url"`     // public base URL of this API
	FrontendURL string `yaml:"frontend_url"` // campaign pages live here
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// MaxLifetime returns the connection max lifetime as a duration.
func (c DatabaseConfig) MaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetime) * time.Minute
}

// RedisConfig holds redis settings for the stats-refresh queue
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MailerConfig selects and configures the outbound mail provider
type MailerConfig struct {
	Provider  string     `yaml:"provider"` // "ses" or "smtp"
	FromName  string     `yaml:"from_name"`
	FromEmail string     `yaml:"from_email"`
	SES       SESConfig  `yaml:"ses"`
	SMTP      SMTPConfig `yaml:"smtp"`
}

// SESConfig holds AWS SES v2 credentials
type SESConfig struct {
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	Region         string `yaml:"region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-send timeout as a duration.
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TrackingConfig holds tracking endpoint settings
type TrackingConfig struct {
	BaseURL     string `yaml:"base_url"`     // base for pixel/click URLs embedded in emails
	FallbackURL string `yaml:"fallback_url"` // click redirect target when token lookup fails
	QueueKey    string `yaml:"queue_key"`    // redis list for stats-refresh tasks
}

// AuthConfig holds bearer-token authentication settings
type AuthConfig struct {
	Enabled         bool `yaml:"enabled"`
	CacheTTLMinutes int  `yaml:"cache_ttl_minutes"`
}

// CacheTTL returns how long resolved tokens stay cached.
func (c AuthConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads config from file then applies environment overrides.
// A missing config file is not an error; env vars alone can configure the
// service in containerized deployments.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env if present (no-op when absent)
	_ = godotenv.Load()

	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.FrontendURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MAILER_PROVIDER"); v != "" {
		cfg.Mailer.Provider = v
	}
	if v := os.Getenv("MAILER_FROM_EMAIL"); v != "" {
		cfg.Mailer.FromEmail = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Mailer.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Mailer.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Mailer.SES.Region = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Mailer.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Mailer.SMTP.Port = p
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Mailer.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Mailer.SMTP.Password = v
	}
	if v := os.Getenv("TRACKING_BASE_URL"); v != "" {
		cfg.Tracking.BaseURL = v
	}
	if v := os.Getenv("TRACKING_FALLBACK_URL"); v != "" {
		cfg.Tracking.FallbackURL = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "https://givebridge.org"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Mailer.Provider == "" {
		c.Mailer.Provider = "ses"
	}
	if c.Mailer.FromName == "" {
		c.Mailer.FromName = "GiveBridge"
	}
	if c.Mailer.SES.Region == "" {
		c.Mailer.SES.Region = "us-west-2"
	}
	if c.Mailer.SES.TimeoutSeconds == 0 {
		c.Mailer.SES.TimeoutSeconds = 30
	}
	if c.Mailer.SMTP.Port == 0 {
		c.Mailer.SMTP.Port = 587
	}
	if c.Tracking.BaseURL == "" {
		c.Tracking.BaseURL = c.Server.BaseURL
	}
	if c.Tracking.FallbackURL == "" {
		c.Tracking.FallbackURL = c.Server.FrontendURL
	}
	if c.Tracking.QueueKey == "" {
		c.Tracking.QueueKey = "outreach:refresh"
	}
	if c.Auth.CacheTTLMinutes == 0 {
		c.Auth.CacheTTLMinutes = 10
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (or DATABASE_URL)")
	}
	if c.Mailer.FromEmail == "" {
		return fmt.Errorf("mailer.from_email is required")
	}
	switch c.Mailer.Provider {
	case "ses":
		if c.Mailer.SES.AccessKey == "" || c.Mailer.SES.SecretKey == "" {
			return fmt.Errorf("mailer.ses credentials are required for provider=ses")
		}
	case "smtp":
		if c.Mailer.SMTP.Host == "" {
			return fmt.Errorf("mailer.smtp.host is required for provider=smtp")
		}
	default:
		return fmt.Errorf("unknown mailer provider %q", c.Mailer.Provider)
	}
	return nil
}
