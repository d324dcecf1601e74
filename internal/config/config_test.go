package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "clinic.events", cfg.Redis.Channel)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, 7*24*time.Hour, cfg.Outbox.Retention)
	assert.Equal(t, "0 2 1 * *", cfg.Payroll.Schedule)
	assert.Equal(t, "UTC", cfg.Settings.Timezone)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
  request_timeout: 10s
database:
  host: db.internal
  name: clinic_prod
settings:
  timezone: Asia/Kolkata
  currency: INR
outbox:
  poll_interval: 1s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("CLINIC_SERVER_PORT", "9191")
	t.Setenv("CLINIC_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Contains(t, cfg.Database.DSN(), "dbname=clinic_prod")

	settings := cfg.DefaultSettings()
	assert.Equal(t, "INR", settings.Currency)
	assert.Equal(t, "Asia/Kolkata", settings.Timezone)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"batch size", func(c *Config) { c.Outbox.BatchSize = 0 }},
		{"retry delay", func(c *Config) { c.Outbox.RetryDelay = 0 }},
		{"jwt expiry", func(c *Config) { c.JWT.ExpiryHours = 0 }},
		{"timezone", func(c *Config) { c.Settings.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireSecret(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireSecret())

	cfg.JWT.Secret = "x"
	assert.NoError(t, cfg.RequireSecret())
}

func TestToWorkerConfig(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	wc := cfg.ToWorkerConfig()
	assert.Equal(t, cfg.Redis.Channel, wc.Channel)
	assert.Equal(t, cfg.Outbox.RetryAttempts, wc.RetryAttempts)

	bc := cfg.ToBrokerConfig()
	assert.Equal(t, cfg.Redis.URL, bc.URL)
	assert.Equal(t, cfg.Redis.PoolSize, bc.PoolSize)
}
