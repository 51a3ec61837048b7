package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	APIBaseURL         string        `mapstructure:"API_BASE_URL"`
	APIToken           string        `mapstructure:"API_TOKEN"`
	APITokenFile       string        `mapstructure:"API_TOKEN_FILE"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaxConcurrent      int           `mapstructure:"MAX_CONCURRENT"`
	DispatchSpacing    time.Duration `mapstructure:"DISPATCH_SPACING"`
	PollInterval       time.Duration `mapstructure:"POLL_INTERVAL"`
	PollAttempts       int           `mapstructure:"POLL_ATTEMPTS"`
	BackgroundInterval time.Duration `mapstructure:"BACKGROUND_INTERVAL"`
	BackgroundAttempts int           `mapstructure:"BACKGROUND_ATTEMPTS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("MAX_CONCURRENT", 3)
	v.SetDefault("DISPATCH_SPACING", "50ms")
	v.SetDefault("POLL_INTERVAL", "1s")
	v.SetDefault("POLL_ATTEMPTS", 30)
	v.SetDefault("BACKGROUND_INTERVAL", "10s")
	v.SetDefault("BACKGROUND_ATTEMPTS", 60)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("API_BASE_URL")
	v.BindEnv("API_TOKEN")
	v.BindEnv("API_TOKEN_FILE")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("MAX_CONCURRENT")
	v.BindEnv("DISPATCH_SPACING")
	v.BindEnv("POLL_INTERVAL")
	v.BindEnv("POLL_ATTEMPTS")
	v.BindEnv("BACKGROUND_INTERVAL")
	v.BindEnv("BACKGROUND_ATTEMPTS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable: the base URL must
// parse as http(s) and the concurrency and polling knobs must be positive.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("API_BASE_URL is missing a host")
	}

	if c.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.DispatchSpacing < 0 {
		return fmt.Errorf("DISPATCH_SPACING must not be negative, got %s", c.DispatchSpacing)
	}
	if c.PollInterval <= 0 || c.BackgroundInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.PollAttempts < 1 || c.BackgroundAttempts < 1 {
		return fmt.Errorf("poll attempt counts must be at least 1")
	}

	if c.APIToken != "" && c.APITokenFile != "" {
		return fmt.Errorf("set API_TOKEN or API_TOKEN_FILE, not both")
	}

	return nil
}
