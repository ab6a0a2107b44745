package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	dir := t.TempDir()
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Verification.ReviewDelay)
	assert.Equal(t, 3*time.Second, cfg.Messaging.PollInterval)
	assert.Contains(t, cfg.Signup.AllowedEmailSuffixes, ".edu")
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: sql
verification:
  review_delay: 10s
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sql", cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Verification.ReviewDelay)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:        StoreConfig{Driver: "redis"},
			Blob:         BlobConfig{Driver: "local"},
			JWT:          JWTConfig{Secret: "s"},
			Verification: VerificationConfig{ReviewDelay: time.Second, SweepInterval: time.Second},
			Signup:       SignupConfig{AllowedEmailSuffixes: []string{".edu"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"bad store", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"s3 without endpoint", func(c *Config) { c.Blob.Driver = "s3" }, true},
		{"no secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"zero sweep", func(c *Config) { c.Verification.SweepInterval = 0 }, true},
		{"no suffixes", func(c *Config) { c.Signup.AllowedEmailSuffixes = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
