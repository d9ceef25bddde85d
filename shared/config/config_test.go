package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
ai:
  gemini_api_key: file-gemini
  model: gemini-test
youtube:
  api_key: file-youtube
  max_results: 3
server:
  port: 9000
log:
  level: debug
`)

	cfg, err := LoadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, "file-gemini", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "gemini-test", cfg.AI.Model)
	assert.Equal(t, "file-youtube", cfg.YouTube.APIKey)
	assert.Equal(t, 3, cfg.YouTube.MaxResults)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults fill the gaps.
	assert.Equal(t, "https://www.googleapis.com/youtube/v3", cfg.YouTube.BaseURL)
	assert.Equal(t, 7, cfg.YouTube.PublishedDays)
	assert.Equal(t, 30*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address())
	assert.Equal(t, "0 0 9 * * *", cfg.Digest.Schedule)
}

func TestLoadFileEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
ai:
  gemini_api_key: file-gemini
digest:
  niches: [from-file]
`)
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("YOUTUBE_API_KEY", "env-youtube")
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("DIGEST_NICHES", "ASMR cooking,retro gaming")

	cfg, err := LoadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, "env-gemini", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "env-youtube", cfg.YouTube.APIKey)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"ASMR cooking", "retro gaming"}, cfg.Digest.Niches)
}

func TestLoadFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	t.Run("Optional", func(t *testing.T) {
		cfg, err := LoadFile(missing, false)
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
		assert.Equal(t, 5, cfg.YouTube.MaxResults)
	})

	t.Run("Required", func(t *testing.T) {
		_, err := LoadFile(missing, true)
		assert.Error(t, err)
	})
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeConfig(t, "ai: [unterminated")
	_, err := LoadFile(path, true)
	assert.Error(t, err)
}

func TestMissingKeysAreNotLoadErrors(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	cfg, err := LoadFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(*Config) {}, false},
		{"Port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"Too many results", func(c *Config) { c.YouTube.MaxResults = 51 }, true},
		{"Negative window", func(c *Config) { c.YouTube.PublishedDays = -1 }, true},
		{"Digest without niches", func(c *Config) { c.Digest.Enabled = true }, true},
		{"Digest without email", func(c *Config) {
			c.Digest.Enabled = true
			c.Digest.Niches = []string{"chess"}
		}, true},
		{"Complete digest", func(c *Config) {
			c.Digest.Enabled = true
			c.Digest.Niches = []string{"chess"}
			c.Email = EmailConfig{
				SMTPServer: "smtp.test.com",
				SMTPPort:   587,
				Username:   "user",
				Password:   "pass",
				FromEmail:  "from@test.com",
				ToEmail:    "to@test.com",
			}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
