package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Source modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Source    SourceConfig    `yaml:"source"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SourceConfig selects where chart records come from: the remote health API
// or the local Postgres database.
type SourceConfig struct {
	Mode           string `yaml:"mode"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// Token overrides the token saved by the login command.
	Token string `yaml:"token"`
	// LocalUser is the login whose records are charted in local mode.
	LocalUser string `yaml:"local_user"`
}

// Timeout returns the HTTP timeout for remote requests.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

type SessionConfig struct {
	Dir     string `yaml:"dir"`
	Profile string `yaml:"profile"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type TelemetryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used before any file or environment
// values are applied.
func Default() *Config {
	sessionDir := ".healthtrends"
	if home, err := os.UserHomeDir(); err == nil {
		sessionDir = filepath.Join(home, ".healthtrends")
	}
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080},
		Source:    SourceConfig{Mode: ModeRemote, TimeoutSeconds: 30, LocalUser: "local"},
		Database:  DatabaseConfig{Port: 5432, MigrationsPath: "migrations"},
		Session:   SessionConfig{Dir: sessionDir, Profile: "default"},
		Tailscale: TailscaleConfig{Hostname: "healthtrends"},
		Telemetry: TelemetryConfig{Enabled: true, Namespace: "healthtrends"},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. Env vars use the prefix HEALTHTRENDS_ and
// underscore-separated paths:
//
//	HEALTHTRENDS_SERVER_HOST, HEALTHTRENDS_SERVER_PORT,
//	HEALTHTRENDS_SOURCE_MODE, HEALTHTRENDS_SOURCE_BASE_URL, HEALTHTRENDS_SOURCE_TOKEN,
//	HEALTHTRENDS_DB_HOST, HEALTHTRENDS_DB_PORT, HEALTHTRENDS_DB_NAME,
//	HEALTHTRENDS_DB_USER, HEALTHTRENDS_DB_PASSWORD, HEALTHTRENDS_DB_SSLMODE,
//	HEALTHTRENDS_SESSION_DIR, HEALTHTRENDS_AUTH_API_KEY,
//	HEALTHTRENDS_TAILSCALE_ENABLED
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadOptional behaves like Load but falls back to defaults plus
// environment overrides when the file does not exist. Used by the CLI
// tools, which can run from flags alone.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		_, err := os.Stat(path)
		if err == nil {
			return Load(path)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEALTHTRENDS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HEALTHTRENDS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HEALTHTRENDS_SOURCE_MODE"); v != "" {
		cfg.Source.Mode = v
	}
	if v := os.Getenv("HEALTHTRENDS_SOURCE_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("HEALTHTRENDS_SOURCE_TOKEN"); v != "" {
		cfg.Source.Token = v
	}
	if v := os.Getenv("HEALTHTRENDS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("HEALTHTRENDS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("HEALTHTRENDS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("HEALTHTRENDS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("HEALTHTRENDS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HEALTHTRENDS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("HEALTHTRENDS_SESSION_DIR"); v != "" {
		cfg.Session.Dir = v
	}
	if v := os.Getenv("HEALTHTRENDS_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("HEALTHTRENDS_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be positive")
	}

	switch c.Source.Mode {
	case ModeRemote:
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required in remote mode")
		}
	case ModeLocal:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required in local mode")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required in local mode")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required in local mode")
		}
		if c.Auth.APIKey == "" {
			return fmt.Errorf("auth.api_key is required in local mode")
		}
	default:
		return fmt.Errorf("source.mode must be %q or %q, got %q", ModeRemote, ModeLocal, c.Source.Mode)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
