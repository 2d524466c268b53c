package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the admin console
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Email     EmailConfig     `yaml:"email"`
	Templates TemplatesConfig `yaml:"templates"`
	Storage   StorageConfig   `yaml:"storage"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	App       AppConfig       `yaml:"app"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int      `yaml:"port"`
	Host                string   `yaml:"host"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
}

// Addr returns host:port for net/http.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL                   string `yaml:"url"`
	MaxOpenConns          int    `yaml:"max_open_conns"`
	MaxIdleConns          int    `yaml:"max_idle_conns"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	StatementTimeoutMS    int    `yaml:"statement_timeout_ms"`
}

// DSN appends connect and statement timeouts to the URL unless already present.
func (c DatabaseConfig) DSN() string {
	dsn := c.URL
	if dsn == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "connect_timeout") && c.ConnectTimeoutSeconds > 0 {
		dsn += sep + "connect_timeout=" + strconv.Itoa(c.ConnectTimeoutSeconds)
		sep = "&"
	}
	if !strings.Contains(dsn, "statement_timeout") && c.StatementTimeoutMS > 0 {
		dsn += sep + "options=-c%20statement_timeout%3D" + strconv.Itoa(c.StatementTimeoutMS)
	}
	return dsn
}

// RedisConfig holds the optional Redis used for send locks
type RedisConfig struct {
	URL            string `yaml:"url"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the send lock TTL.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// AuthConfig holds identity provider settings
type AuthConfig struct {
	Enabled          bool   `yaml:"enabled"`
	JWKSURL          string `yaml:"jwks_url"`
	Issuer           string `yaml:"issuer"`
	SessionCookie    string `yaml:"session_cookie"`
	JWKSCacheMinutes int    `yaml:"jwks_cache_minutes"`
	ClockSkewSeconds int    `yaml:"clock_skew_seconds"`
}

// JWKSCacheTTL returns how long fetched signing keys are trusted.
func (c AuthConfig) JWKSCacheTTL() time.Duration {
	return time.Duration(c.JWKSCacheMinutes) * time.Minute
}

// EmailConfig holds the dispatcher selection and sender identity
type EmailConfig struct {
	Provider               string         `yaml:"provider"`
	FromName               string         `yaml:"from_name"`
	FromEmail              string         `yaml:"from_email"`
	ApprovalSubject        string         `yaml:"approval_subject"`
	RejectionSubject       string         `yaml:"rejection_subject"`
	DispatchTimeoutSeconds int            `yaml:"dispatch_timeout_seconds"`
	RequireCredentials     bool           `yaml:"require_credentials"`
	Resend                 ResendConfig   `yaml:"resend"`
	SES                    SESConfig      `yaml:"ses"`
	SendGrid               SendGridConfig `yaml:"sendgrid"`
}

// DispatchTimeout bounds a single provider call.
func (c EmailConfig) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}

// ResendConfig holds Resend API settings
type ResendConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SESConfig holds AWS SES v2 settings
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`
	ConfigurationSet string `yaml:"configuration_set"`
}

// SendGridConfig holds SendGrid API settings
type SendGridConfig struct {
	APIKey string `yaml:"api_key"`
}

// TemplatesConfig selects where email templates come from
type TemplatesConfig struct {
	Dir    string `yaml:"dir"`
	Engine string `yaml:"engine"` // "placeholder" or "liquid"
}

// StorageConfig holds blog image storage settings
type StorageConfig struct {
	ImageBucket   string `yaml:"image_bucket"`
	Region        string `yaml:"region"`
	PublicBaseURL string `yaml:"public_base_url"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
	// LocalDir stores images on disk instead of S3. Development only.
	LocalDir string `yaml:"local_dir"`
}

// MaxUploadBytes is the blog image size limit.
func (c StorageConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// TrackingConfig holds open-tracking beacon settings
type TrackingConfig struct {
	Port                  int `yaml:"port"`
	ProcessTimeoutSeconds int `yaml:"process_timeout_seconds"`
}

// ProcessTimeout bounds the store writes behind one beacon hit.
func (c TrackingConfig) ProcessTimeout() time.Duration {
	return time.Duration(c.ProcessTimeoutSeconds) * time.Second
}

// AppConfig holds the public URLs used in emails
type AppConfig struct {
	AppURL   string `yaml:"app_url"`
	AdminURL string `yaml:"admin_url"`
}

// SignupURL is the link new beta users follow.
func (c AppConfig) SignupURL() string {
	return strings.TrimRight(c.AppURL, "/") + "/sign-up"
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3001"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 3
	}
	if cfg.Database.ConnectTimeoutSeconds == 0 {
		cfg.Database.ConnectTimeoutSeconds = 5
	}
	if cfg.Database.StatementTimeoutMS == 0 {
		cfg.Database.StatementTimeoutMS = 15000
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 30
	}
	if cfg.Auth.SessionCookie == "" {
		cfg.Auth.SessionCookie = "__session"
	}
	if cfg.Auth.JWKSCacheMinutes == 0 {
		cfg.Auth.JWKSCacheMinutes = 60
	}
	if cfg.Auth.ClockSkewSeconds == 0 {
		cfg.Auth.ClockSkewSeconds = 5
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "resend"
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Agentdrop"
	}
	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "noreply@mail.agentdrop.io"
	}
	if cfg.Email.ApprovalSubject == "" {
		cfg.Email.ApprovalSubject = "🎉 You're Approved for Agentdrop Beta Access!"
	}
	if cfg.Email.RejectionSubject == "" {
		cfg.Email.RejectionSubject = "Update on your Agentdrop Beta Application"
	}
	if cfg.Email.DispatchTimeoutSeconds == 0 {
		cfg.Email.DispatchTimeoutSeconds = 10
	}
	if cfg.Email.Resend.BaseURL == "" {
		cfg.Email.Resend.BaseURL = "https://api.resend.com"
	}
	if cfg.Email.SES.Region == "" {
		cfg.Email.SES.Region = "us-east-1"
	}
	if cfg.Templates.Engine == "" {
		cfg.Templates.Engine = "placeholder"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.ImageBucket == "" {
		cfg.Storage.ImageBucket = "blog-images"
	}
	if cfg.Storage.MaxUploadMB == 0 {
		cfg.Storage.MaxUploadMB = 10
	}
	if cfg.Tracking.Port == 0 {
		cfg.Tracking.Port = 8081
	}
	if cfg.Tracking.ProcessTimeoutSeconds == 0 {
		cfg.Tracking.ProcessTimeoutSeconds = 3
	}
	if cfg.App.AppURL == "" {
		cfg.App.AppURL = "https://agentdrop.io"
	}
	if cfg.App.AdminURL == "" {
		cfg.App.AdminURL = "http://localhost:3001"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first when present. A missing config file is not an
// error: defaults plus environment are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{}
		cfg.applyDefaults()
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CLERK_JWKS_URL"); v != "" {
		cfg.Auth.JWKSURL = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("CLERK_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("EMAIL_PROVIDER"); v != "" {
		cfg.Email.Provider = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Email.Resend.APIKey = v
	}
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		cfg.Email.SendGrid.APIKey = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Email.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Email.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Email.SES.Region = v
	}
	if v := os.Getenv("NEXT_PUBLIC_APP_URL"); v != "" {
		cfg.App.AppURL = v
	}
	if v := os.Getenv("NEXT_PUBLIC_ADMIN_URL"); v != "" {
		cfg.App.AdminURL = v
	}
	if v := os.Getenv("BLOG_IMAGE_BUCKET"); v != "" {
		cfg.Storage.ImageBucket = v
	}
	if v := os.Getenv("BLOG_IMAGE_LOCAL_DIR"); v != "" {
		cfg.Storage.LocalDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

// Validate reports settings that make the server unusable.
func (cfg *Config) Validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database url is required (DATABASE_URL)")
	}
	if cfg.Auth.Enabled && cfg.Auth.JWKSURL == "" {
		return errors.New("auth is enabled but no JWKS url is configured (CLERK_JWKS_URL)")
	}
	switch cfg.Email.Provider {
	case "resend", "ses", "sendgrid":
	default:
		return fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
	switch cfg.Templates.Engine {
	case "placeholder", "liquid":
	default:
		return fmt.Errorf("unknown template engine %q", cfg.Templates.Engine)
	}
	return nil
}
