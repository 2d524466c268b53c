package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  allowed_origins: ["https://admin.agentdrop.io"]

database:
  url: "postgres://admin@localhost/agentdrop?sslmode=disable"

email:
  provider: "ses"
  dispatch_timeout_seconds: 4
  ses:
    region: "eu-west-1"

templates:
  dir: "./templates"
  engine: "liquid"

app:
  app_url: "https://staging.agentdrop.io/"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://admin.agentdrop.io"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.Equal(t, 4*time.Second, cfg.Email.DispatchTimeout())
	assert.Equal(t, "eu-west-1", cfg.Email.SES.Region)
	assert.Equal(t, "liquid", cfg.Templates.Engine)
	assert.Equal(t, "https://staging.agentdrop.io/sign-up", cfg.App.SignupURL())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("{}\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "resend", cfg.Email.Provider)
	assert.Equal(t, "Agentdrop", cfg.Email.FromName)
	assert.Equal(t, "noreply@mail.agentdrop.io", cfg.Email.FromEmail)
	assert.Equal(t, "🎉 You're Approved for Agentdrop Beta Access!", cfg.Email.ApprovalSubject)
	assert.Equal(t, 10*time.Second, cfg.Email.DispatchTimeout())
	assert.Equal(t, "https://api.resend.com", cfg.Email.Resend.BaseURL)
	assert.Equal(t, "https://agentdrop.io/sign-up", cfg.App.SignupURL())
	assert.Equal(t, "http://localhost:3001", cfg.App.AdminURL)
	assert.Equal(t, "placeholder", cfg.Templates.Engine)
	assert.Equal(t, "blog-images", cfg.Storage.ImageBucket)
	assert.Equal(t, 3*time.Second, cfg.Tracking.ProcessTimeout())
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@db/agentdrop")
	t.Setenv("RESEND_API_KEY", "re_test_123")
	t.Setenv("CLERK_JWKS_URL", "https://clerk.example.com/.well-known/jwks.json")
	t.Setenv("NEXT_PUBLIC_ADMIN_URL", "https://admin.agentdrop.io")
	t.Setenv("PORT", "4000")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env@db/agentdrop", cfg.Database.URL)
	assert.Equal(t, "re_test_123", cfg.Email.Resend.APIKey)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "https://admin.agentdrop.io", cfg.App.AdminURL)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://u@h/db?sslmode=disable", ConnectTimeoutSeconds: 5, StatementTimeoutMS: 15000}
	assert.Equal(t, "postgres://u@h/db?sslmode=disable&connect_timeout=5&options=-c%20statement_timeout%3D15000", c.DSN())

	c = DatabaseConfig{URL: "postgres://u@h/db?connect_timeout=2"}
	assert.Equal(t, "postgres://u@h/db?connect_timeout=2", c.DSN())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	assert.Error(t, cfg.Validate(), "missing database url")

	cfg.Database.URL = "postgres://x"
	cfg.Email.Provider = "pigeon"
	assert.Error(t, cfg.Validate())

	cfg.Email.Provider = "sendgrid"
	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate(), "auth without jwks url")
}
