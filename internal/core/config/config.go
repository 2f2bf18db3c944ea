package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kesher-crm/kesher/internal/core/template"
)

// Config represents the top-level application config plus the resolved
// notification template set.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Engine    EngineConfig    `koanf:"engine"`
	Templates TemplatesConfig `koanf:"templates"`

	// TemplateSet is populated by Load after parsing template files.
	TemplateSet *template.Set `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type EngineConfig struct {
	Enabled       bool   `koanf:"enabled"`
	PollInterval  string `koanf:"poll_interval"`  // parsed and validated on startup
	LateTolerance string `koanf:"late_tolerance"` // grace window past notice-window open
	ToastDuration string `koanf:"toast_duration"`
	ToastFeedSize int    `koanf:"toast_feed_size"`
	Desktop       bool   `koanf:"desktop"` // OS-level notification channel
}

type TemplatesConfig struct {
	ConfigDir string `koanf:"config_dir"`
}

// PollIntervalDuration returns the parsed poll interval. Validate
// guarantees it parses.
func (c EngineConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// LateToleranceDuration returns the parsed late tolerance.
func (c EngineConfig) LateToleranceDuration() time.Duration {
	d, _ := time.ParseDuration(c.LateTolerance)
	return d
}

// ToastDurationDuration returns how long a toast stays on screen.
func (c EngineConfig) ToastDurationDuration() time.Duration {
	d, _ := time.ParseDuration(c.ToastDuration)
	return d
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	interval, err := time.ParseDuration(c.Engine.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid engine.poll_interval %q: %w", c.Engine.PollInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("engine.poll_interval must be > 0")
	}

	tolerance, err := time.ParseDuration(c.Engine.LateTolerance)
	if err != nil {
		return fmt.Errorf("invalid engine.late_tolerance %q: %w", c.Engine.LateTolerance, err)
	}
	if tolerance <= 0 {
		return fmt.Errorf("engine.late_tolerance must be > 0")
	}

	toast, err := time.ParseDuration(c.Engine.ToastDuration)
	if err != nil {
		return fmt.Errorf("invalid engine.toast_duration %q: %w", c.Engine.ToastDuration, err)
	}
	if toast <= 0 {
		return fmt.Errorf("engine.toast_duration must be > 0")
	}
	if c.Engine.ToastFeedSize <= 0 {
		return fmt.Errorf("engine.toast_feed_size must be > 0")
	}

	return nil
}

// Load parses config from file + env, validates it, then loads and
// compiles notification templates. A .env file in the working directory
// is folded into the environment first for local development.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 1,
		"server.mode":             "release",
		"database.type":           "postgres",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"engine.enabled":          true,
		"engine.poll_interval":    "20s",
		"engine.late_tolerance":   "10m",
		"engine.toast_duration":   "8s",
		"engine.toast_feed_size":  50,
		"engine.desktop":          true,
		"templates.config_dir":    "./config/templates",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("KESHER_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "KESHER_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set, err := template.LoadDir(cfg.Templates.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification templates: %w", err)
	}
	cfg.TemplateSet = set

	return &cfg, nil
}
