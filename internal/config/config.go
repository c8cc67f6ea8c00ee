// Package config loads and persists application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/engine"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds campus server configuration
type ServerConfig struct {
	URL   string `mapstructure:"url"`   // Campus server URL
	Token string `mapstructure:"token"` // API access token
	Demo  bool   `mapstructure:"demo"`  // Serve bundled sample data instead
}

// SessionConfig remembers who was signed in so the app can start
// offline with the right cache scope
type SessionConfig struct {
	UserID string `mapstructure:"user_id"`
	Name   string `mapstructure:"name"`
	Role   string `mapstructure:"role"`
}

// SyncConfig tunes the data engine. Durations are strings ("10m") so
// the YAML stays readable when written back.
type SyncConfig struct {
	PageSize            int    `mapstructure:"page_size"`            // Items fetched per page
	StaleAfter          string `mapstructure:"stale_after"`          // Cached data older than this refreshes on load
	BaseInterval        string `mapstructure:"base_interval"`        // Background refresh cadence on a good link
	MeteredInterval     string `mapstructure:"metered_interval"`     // Cadence on a metered link
	ConstrainedInterval string `mapstructure:"constrained_interval"` // Cadence on a constrained link
	ReportOnRefresh     bool   `mapstructure:"report_on_refresh"`    // Surface divergence reports on background refreshes
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{},
		Sync: SyncConfig{
			PageSize:            engine.DefaultPageSize,
			StaleAfter:          engine.DefaultStaleAfter.String(),
			BaseInterval:        engine.DefaultBaseInterval.String(),
			MeteredInterval:     engine.DefaultMeteredInterval.String(),
			ConstrainedInterval: engine.DefaultConstrainedInterval.String(),
			ReportOnRefresh:     false,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// Dir returns the directory configuration is read from. SLATE_CONFIG_DIR
// overrides the per-OS default.
func Dir() string {
	if dir := os.Getenv("SLATE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return defaultConfigPath()
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "slate")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "slate")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "slate", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "slate", "cache")
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "slate", "slate.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "slate", "slate.log")
	}
}

// Load reads configuration from the default directory and environment
func Load() (*Config, error) {
	return LoadFrom(Dir())
}

// LoadFrom reads configuration from dir. Missing files are fine; defaults
// apply and SLATE_* environment variables override everything.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// Environment variable overrides (SLATE_SERVER_URL and friends).
	// Every key needs a default registered or AutomaticEnv cannot see it.
	setAll(v, cfg)
	v.SetEnvPrefix("SLATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default directory
func Save(cfg *Config) error {
	return SaveTo(Dir(), cfg)
}

// SaveTo writes the configuration to dir as config.yaml
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setAll(v, cfg)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setAll registers every key with its snake_case name
func setAll(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("server.demo", cfg.Server.Demo)

	v.SetDefault("session.user_id", cfg.Session.UserID)
	v.SetDefault("session.name", cfg.Session.Name)
	v.SetDefault("session.role", cfg.Session.Role)

	v.SetDefault("sync.page_size", cfg.Sync.PageSize)
	v.SetDefault("sync.stale_after", cfg.Sync.StaleAfter)
	v.SetDefault("sync.base_interval", cfg.Sync.BaseInterval)
	v.SetDefault("sync.metered_interval", cfg.Sync.MeteredInterval)
	v.SetDefault("sync.constrained_interval", cfg.Sync.ConstrainedInterval)
	v.SetDefault("sync.report_on_refresh", cfg.Sync.ReportOnRefresh)

	v.SetDefault("cache.dir", cfg.Cache.Dir)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// ClearServer removes server and session settings while preserving
// everything else
func ClearServer(dir string) error {
	cfg, err := LoadFrom(dir)
	if err != nil {
		return err
	}
	cfg.Server = ServerConfig{}
	cfg.Session = SessionConfig{}
	return SaveTo(dir, cfg)
}

// IsConfigured reports whether a backend can be built from this config
func (c *Config) IsConfigured() bool {
	return c.Server.Demo || (c.Server.URL != "" && c.Server.Token != "")
}

// RememberSession records the signed-in identity for offline starts
func (c *Config) RememberSession(s domain.Session) {
	c.Session = SessionConfig{UserID: s.UserID, Name: s.Name, Role: string(s.Role)}
}

// EngineOptions translates the settings into engine options.
// Malformed durations fall back to the engine defaults.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		PageSize:   c.Sync.PageSize,
		StaleAfter: parseDuration(c.Sync.StaleAfter),
		Intervals: engine.RefreshIntervals{
			Base:        parseDuration(c.Sync.BaseInterval),
			Metered:     parseDuration(c.Sync.MeteredInterval),
			Constrained: parseDuration(c.Sync.ConstrainedInterval),
		},
		ReportOnRefresh: c.Sync.ReportOnRefresh,
		Demo:            c.Server.Demo,
		FallbackSession: domain.Session{
			UserID: c.Session.UserID,
			Name:   c.Session.Name,
			Role:   domain.Role(c.Session.Role),
		},
	}
}

// parseDuration returns zero for malformed values so the engine applies
// its own default instead
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
