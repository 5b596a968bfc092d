// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "portfolio.toml"

// envPrefix prefixes every environment override.
const envPrefix = "PORTFOLIO_"

// Duration is a time.Duration that reads from TOML strings such as "900ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the portfolio-studio configuration file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Events  EventsConfig  `toml:"events"`
	Editor  EditorConfig  `toml:"editor"`
	Log     LogConfig     `toml:"log"`
	Auth    AuthConfig    `toml:"auth"`
	Contact ContactConfig `toml:"contact"`
}

// ServerConfig configures `portfolio serve`.
type ServerConfig struct {
	Port int `toml:"port" validate:"min=1,max=65535"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Driver    string `toml:"driver" validate:"oneof=memory file sqlite postgres redis"`
	Dir       string `toml:"dir" validate:"required_if=Driver file,required_if=Driver sqlite"`
	DSN       string `toml:"dsn" validate:"required_if=Driver postgres"`
	RedisURL  string `toml:"redis_url" validate:"required_if=Driver redis"`
	KeyPrefix string `toml:"key_prefix"`
}

// EventsConfig selects the event bus.
type EventsConfig struct {
	Driver   string `toml:"driver" validate:"oneof=local redis"`
	RedisURL string `toml:"redis_url" validate:"required_if=Driver redis"`
	Channel  string `toml:"channel"`
}

// EditorConfig tunes the editing session.
type EditorConfig struct {
	AutosaveDelay Duration `toml:"autosave_delay"`
	IdleTimeout   Duration `toml:"idle_timeout"`
	HistoryLimit  int      `toml:"history_limit" validate:"min=1"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// AuthConfig holds the admin credentials.
type AuthConfig struct {
	PasswordHash string `toml:"password_hash"`
}

// ContactConfig tunes contact-form delivery.
type ContactConfig struct {
	Timeout Duration `toml:"timeout"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Driver: "file", Dir: "data"},
		Events:  EventsConfig{Driver: "local", Channel: "portfolio:events"},
		Editor: EditorConfig{
			AutosaveDelay: Duration(900 * time.Millisecond),
			IdleTimeout:   Duration(15 * time.Minute),
			HistoryLimit:  60,
		},
		Log:     LogConfig{Level: "info"},
		Contact: ContactConfig{Timeout: Duration(10 * time.Second)},
	}
}

// Load reads the TOML file at path over the defaults, then applies
// PORTFOLIO_* environment overrides and validates the result. A missing file
// is not an error when path is DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && filepath.Clean(path) == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STORAGE_DRIVER":      &c.Storage.Driver,
		"STORAGE_DIR":         &c.Storage.Dir,
		"DATABASE_URL":        &c.Storage.DSN,
		"REDIS_URL":           &c.Storage.RedisURL,
		"KEY_PREFIX":          &c.Storage.KeyPrefix,
		"EVENTS_DRIVER":       &c.Events.Driver,
		"EVENTS_REDIS_URL":    &c.Events.RedisURL,
		"LOG_LEVEL":           &c.Log.Level,
		"ADMIN_PASSWORD_HASH": &c.Auth.PasswordHash,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", envPrefix, err)
		}
		c.Server.Port = port
	}

	durations := map[string]*Duration{
		"AUTOSAVE_DELAY": &c.Editor.AutosaveDelay,
		"IDLE_TIMEOUT":   &c.Editor.IdleTimeout,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
		}
	}

	// Share the storage redis connection when the bus has none of its own.
	if c.Events.Driver == "redis" && c.Events.RedisURL == "" {
		c.Events.RedisURL = c.Storage.RedisURL
	}
	return nil
}

// Validate checks field ranges and driver-specific requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if c.Editor.AutosaveDelay < 0 || c.Editor.IdleTimeout < 0 {
		return fmt.Errorf("config error: editor durations must be non-negative")
	}
	return nil
}
