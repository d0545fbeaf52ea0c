package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// DefaultEndpoint is the production bitacora service.
const DefaultEndpoint = "https://api-jose-barrios-production.up.railway.app/bitacora"

// Config holds application configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	UI       UIConfig       `toml:"ui"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig holds remote service settings.
type APIConfig struct {
	Endpoint  string        `toml:"endpoint"`
	Timeout   time.Duration `toml:"timeout" mapstructure:"timeout"`
	UserAgent string        `toml:"user_agent" mapstructure:"user_agent"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Timezone      string        `toml:"timezone"`
	Title         string        `toml:"title"`
	FetchOnSelect bool          `toml:"fetch_on_select" mapstructure:"fetch_on_select"`
	StatusTTL     time.Duration `toml:"status_ttl" mapstructure:"status_ttl"`
}

// DatabaseConfig holds sqlite settings for the fetch journal.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	Path       string `toml:"path"`
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
}

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	home := os.Getenv("HOME")
	return Config{
		API: APIConfig{
			Endpoint:  DefaultEndpoint,
			Timeout:   15 * time.Second,
			UserAgent: "bitacora/1",
		},
		UI: UIConfig{
			Timezone:      "America/Merida",
			Title:         "Bitacora - BT01",
			FetchOnSelect: true,
			StatusTTL:     5 * time.Second,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".local", "share", "bitacora", "bitacora.db"),
		},
		Log: LogConfig{
			Path:       filepath.Join(home, ".local", "state", "bitacora", "bitacora.log"),
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Path returns the config file location. BITACORA_CONFIG wins over the default.
func Path() string {
	if p := os.Getenv("BITACORA_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "bitacora", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix BITACORA_.
// A missing config file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	if path == "" {
		path = Path()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("BITACORA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the app cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.Endpoint) == "" {
		return fmt.Errorf("config: api.endpoint is empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %s", c.API.Timeout)
	}
	if _, err := time.LoadLocation(c.UI.Timezone); err != nil {
		return fmt.Errorf("config: ui.timezone %q: %w", c.UI.Timezone, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api.endpoint", d.API.Endpoint)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.user_agent", d.API.UserAgent)
	v.SetDefault("ui.timezone", d.UI.Timezone)
	v.SetDefault("ui.title", d.UI.Title)
	v.SetDefault("ui.fetch_on_select", d.UI.FetchOnSelect)
	v.SetDefault("ui.status_ttl", d.UI.StatusTTL)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
}

// fileConfig mirrors Config with durations as strings so the template reads "15s", not nanoseconds.
type fileConfig struct {
	API struct {
		Endpoint  string `toml:"endpoint"`
		Timeout   string `toml:"timeout"`
		UserAgent string `toml:"user_agent"`
	} `toml:"api"`
	UI struct {
		Timezone      string `toml:"timezone"`
		Title         string `toml:"title"`
		FetchOnSelect bool   `toml:"fetch_on_select"`
		StatusTTL     string `toml:"status_ttl"`
	} `toml:"ui"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var fc fileConfig
	fc.API.Endpoint = cfg.API.Endpoint
	fc.API.Timeout = cfg.API.Timeout.String()
	fc.API.UserAgent = cfg.API.UserAgent
	fc.UI.Timezone = cfg.UI.Timezone
	fc.UI.Title = cfg.UI.Title
	fc.UI.FetchOnSelect = cfg.UI.FetchOnSelect
	fc.UI.StatusTTL = cfg.UI.StatusTTL.String()
	fc.Database = cfg.Database
	fc.Log = cfg.Log

	var buf bytes.Buffer
	buf.WriteString("# bitacora configuration\n# Every key can be overridden with BITACORA_<SECTION>_<KEY>.\n\n")
	if err := toml.NewEncoder(&buf).Encode(fc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default config to path, creating the directory if needed.
// An existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		path = Path()
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	data, err := Encode(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}
