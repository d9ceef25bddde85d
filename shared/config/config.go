package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	AI      AIConfig      `yaml:"ai"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Digest  DigestConfig  `yaml:"digest"`
	Email   EmailConfig   `yaml:"email"`
}

// AIConfig configures the Gemini trend analyzer. An empty key disables it.
type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" envconfig:"GEMINI_API_KEY"`
	Model        string `yaml:"model" envconfig:"GEMINI_MODEL"`
	BaseURL      string `yaml:"base_url" envconfig:"GEMINI_BASE_URL"`
}

// YouTubeConfig configures the YouTube Data API lookup. An empty key disables it.
type YouTubeConfig struct {
	APIKey        string        `yaml:"api_key" envconfig:"YOUTUBE_API_KEY"`
	BaseURL       string        `yaml:"base_url" envconfig:"YOUTUBE_BASE_URL"`
	MaxResults    int           `yaml:"max_results" envconfig:"YOUTUBE_MAX_RESULTS"`
	PublishedDays int           `yaml:"published_within_days" envconfig:"YOUTUBE_PUBLISHED_WITHIN_DAYS"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"YOUTUBE_TIMEOUT"`
}

type ServerConfig struct {
	Host                 string `yaml:"host" envconfig:"SERVER_HOST"`
	Port                 int    `yaml:"port" envconfig:"SERVER_PORT"`
	SubmissionsPerMinute int    `yaml:"submissions_per_minute" envconfig:"SERVER_SUBMISSIONS_PER_MINUTE"`
}

type LogConfig struct {
	Level string `yaml:"level" envconfig:"LOG_LEVEL"`
	File  string `yaml:"file" envconfig:"LOG_FILE"`
}

// DigestConfig drives the scheduled niche digest. Disabled by default.
type DigestConfig struct {
	Enabled       bool          `yaml:"enabled" envconfig:"DIGEST_ENABLED"`
	Schedule      string        `yaml:"schedule" envconfig:"DIGEST_SCHEDULE"`
	Niches        []string      `yaml:"niches" envconfig:"DIGEST_NICHES"`
	DataDir       string        `yaml:"data_dir" envconfig:"DIGEST_DATA_DIR"`
	SeenRetention time.Duration `yaml:"seen_retention" envconfig:"DIGEST_SEEN_RETENTION"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server" envconfig:"EMAIL_SMTP_SERVER"`
	SMTPPort   int    `yaml:"smtp_port" envconfig:"EMAIL_SMTP_PORT"`
	Username   string `yaml:"username" envconfig:"EMAIL_USERNAME"`
	Password   string `yaml:"password" envconfig:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email" envconfig:"EMAIL_FROM"`
	ToEmail    string `yaml:"to_email" envconfig:"EMAIL_TO"`
}

// Load reads .env, then the YAML file, then environment overrides.
// A missing config.yaml is fine; a missing $CONFIG_FILE is not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}

	return LoadFile(configFile, explicit)
}

// LoadFile loads configuration from path. When required is false a missing
// file falls back to environment variables and defaults.
func LoadFile(path string, required bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if c.YouTube.MaxResults == 0 {
		c.YouTube.MaxResults = 5
	}
	if c.YouTube.PublishedDays == 0 {
		c.YouTube.PublishedDays = 7
	}
	if c.YouTube.Timeout == 0 {
		c.YouTube.Timeout = 30 * time.Second
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SubmissionsPerMinute == 0 {
		c.Server.SubmissionsPerMinute = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Digest.DataDir == "" {
		c.Digest.DataDir = "data"
	}
	if c.Digest.SeenRetention == 0 {
		c.Digest.SeenRetention = 7 * 24 * time.Hour
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
}

// Validate checks structural settings. Missing API keys are not errors: the
// matching client reports a configuration error when it is used.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.YouTube.MaxResults < 1 || c.YouTube.MaxResults > 50 {
		return fmt.Errorf("youtube max_results must be between 1 and 50, got %d", c.YouTube.MaxResults)
	}
	if c.YouTube.PublishedDays < 1 {
		return fmt.Errorf("youtube published_within_days must be positive, got %d", c.YouTube.PublishedDays)
	}
	if c.Server.SubmissionsPerMinute < 0 {
		return fmt.Errorf("server submissions_per_minute must not be negative")
	}
	if c.Digest.Enabled {
		return c.ValidateDigest()
	}
	return nil
}

// ValidateDigest checks what the scheduled digest needs to run.
func (c *Config) ValidateDigest() error {
	if len(c.Digest.Niches) == 0 {
		return fmt.Errorf("digest niches are required (set DIGEST_NICHES or digest.niches)")
	}
	if c.Email.SMTPServer == "" {
		return fmt.Errorf("SMTP server is required for the digest (set EMAIL_SMTP_SERVER or email.smtp_server)")
	}
	if c.Email.Username == "" {
		return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
	}
	if c.Email.ToEmail == "" {
		return fmt.Errorf("Email recipient is required (set EMAIL_TO or email.to_email)")
	}
	return nil
}

// Address returns the listen address in host:port form.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
