package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Tracking TrackingConfig `yaml:"tracking"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Webhooks WebhookConfig  `yaml:"webhooks"`
	Export   ExportConfig   `yaml:"export"`
}

// ServerConfig holds the admin API server configuration.
type ServerConfig struct {
	Port    int    `yaml:"port"`
	Host    string `yaml:"host"`
	BaseURL string `yaml:"base_url"` // public base URL, used to build download links
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// TrackingConfig holds the public tracking server configuration. It is a
// separate listener because tracking endpoints face untrusted recipients.
type TrackingConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings for the campaign launch lock.
// Disabled falls back to PostgreSQL advisory locks.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig holds Google OAuth authentication configuration for admins.
type AuthConfig struct {
	Enabled            bool     `yaml:"enabled"`
	GoogleClientID     string   `yaml:"google_client_id"`
	GoogleClientSecret string   `yaml:"google_client_secret"`
	AllowedDomain      string   `yaml:"allowed_domain"`
	AdminEmails        []string `yaml:"admin_emails"`
	CookieName         string   `yaml:"cookie_name"`
	CookieMaxAge       int      `yaml:"cookie_max_age"`
}

// WebhookConfig holds notification fan-out settings.
type WebhookConfig struct {
	// PlatformURL is the global endpoint, attempted for every event when set.
	// Organization endpoints come from each organization record.
	PlatformURL    string `yaml:"platform_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	QueueSize      int    `yaml:"queue_size"`
}

// Timeout returns the per-endpoint delivery timeout as a duration.
func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportConfig holds report export settings.
type ExportConfig struct {
	TokenTTLSeconds int `yaml:"token_ttl_seconds"`

	// Optional S3 archive of every issued export, for audit.
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
}

// TokenTTL returns the export token lifetime as a duration.
func (c ExportConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Tracking.Port == 0 {
		cfg.Tracking.Port = 8081
	}
	if cfg.Tracking.Host == "" {
		cfg.Tracking.Host = "0.0.0.0"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "phishsim_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.Webhooks.TimeoutSeconds == 0 {
		cfg.Webhooks.TimeoutSeconds = 5
	}
	if cfg.Webhooks.QueueSize == 0 {
		cfg.Webhooks.QueueSize = 1024
	}
	if cfg.Export.TokenTTLSeconds == 0 {
		cfg.Export.TokenTTLSeconds = 300
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if url := os.Getenv("PLATFORM_WEBHOOK_URL"); url != "" {
		cfg.Webhooks.PlatformURL = url
	}
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
		cfg.Auth.GoogleClientID = id
	}
	if secret := os.Getenv("GOOGLE_CLIENT_SECRET"); secret != "" {
		cfg.Auth.GoogleClientSecret = secret
	}
	if admins := os.Getenv("ADMIN_EMAILS"); admins != "" {
		cfg.Auth.AdminEmails = splitAndTrim(admins)
	}
	if bucket := os.Getenv("EXPORT_S3_BUCKET"); bucket != "" {
		cfg.Export.S3Bucket = bucket
	}
	if region := os.Getenv("EXPORT_S3_REGION"); region != "" {
		cfg.Export.S3Region = region
	}
	if baseURL := os.Getenv("SERVER_BASE_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Webhooks.TimeoutSeconds < 1 || c.Webhooks.TimeoutSeconds > 30 {
		return fmt.Errorf("webhooks.timeout_seconds must be between 1 and 30, got %d", c.Webhooks.TimeoutSeconds)
	}
	if c.Export.TokenTTLSeconds < 60 {
		return fmt.Errorf("export.token_ttl_seconds must be at least 60, got %d", c.Export.TokenTTLSeconds)
	}
	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
