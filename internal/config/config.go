// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codr1/leaguemap/internal/models"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type LeaguesConfig struct {
	// CatalogFile overrides the embedded league catalog when set.
	CatalogFile string `yaml:"catalog_file"`
}

type EditorConfig struct {
	Palette           []string `yaml:"palette"`
	SimplifyTolerance float64  `yaml:"simplify_tolerance"`
}

type SchedulerConfig struct {
	// ReassignCron is a standard five-field cron expression. Empty disables
	// the reassignment sweep.
	ReassignCron string `yaml:"reassign_cron"`
}

type RateLimitConfig struct {
	// Writes of the areas collection per client. Zero values use defaults.
	SaveCooldownSeconds int  `yaml:"save_cooldown_seconds"`
	SaveMaxPerHour      int  `yaml:"save_max_per_hour"`
	TrustProxy          bool `yaml:"trust_proxy"`
}

type EmailConfig struct {
	Region string   `yaml:"region"`
	Sender string   `yaml:"sender"`
	Admins []string `yaml:"admins"`
	// Credentials are loaded from environment.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// Enabled reports whether reassignment notices can be sent.
func (e EmailConfig) Enabled() bool {
	return e.Sender != "" && len(e.Admins) > 0
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Leagues   LeaguesConfig   `yaml:"leagues"`
	Editor    EditorConfig    `yaml:"editor"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Email     EmailConfig     `yaml:"email"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Relative catalog paths are resolved against the config directory.
	if cfg.Leagues.CatalogFile != "" && !filepath.IsAbs(cfg.Leagues.CatalogFile) {
		cfg.Leagues.CatalogFile = filepath.Join(filepath.Dir(configPath), cfg.Leagues.CatalogFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes a YAML config and fills secrets from the environment. It
// does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	if region := os.Getenv("AWS_REGION"); region != "" && cfg.Email.Region == "" {
		cfg.Email.Region = region
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	for i, color := range c.Editor.Palette {
		if !models.IsHexColor(strings.TrimSpace(color)) {
			return fmt.Errorf("editor palette color %d is not a hex color: %q", i, color)
		}
	}
	if c.Editor.SimplifyTolerance < 0 {
		return fmt.Errorf("editor simplify tolerance must not be negative")
	}

	if c.Scheduler.ReassignCron != "" {
		if _, err := cron.ParseStandard(c.Scheduler.ReassignCron); err != nil {
			return fmt.Errorf("invalid reassign cron %q: %w", c.Scheduler.ReassignCron, err)
		}
	}

	if c.RateLimit.SaveCooldownSeconds < 0 || c.RateLimit.SaveMaxPerHour < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}

	if len(c.Email.Admins) > 0 && c.Email.Sender == "" {
		return fmt.Errorf("email sender is required when admins are configured")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "" || c.App.Environment == "development"
}
