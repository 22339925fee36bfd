// Package config loads and persists gitexplorer settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/gitexplorer/internal/apperr"
)

// Config is the persistent application configuration
type Config struct {
	// DataDir holds the log, identity and local document database.
	DataDir string `yaml:"data_dir"`

	AppID string `yaml:"app_id"`

	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	DocStore DocStoreConfig `yaml:"docstore"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`

	path string
}

// SearchConfig configures the repository search client
type SearchConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Token             string        `yaml:"token,omitempty"` // GitHub token, raises the API rate limit
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"` // 0 disables client-side pacing
}

// AuthConfig configures identity
type AuthConfig struct {
	// CustomToken signs in as a known user. Empty means anonymous sign-in.
	CustomToken string `yaml:"custom_token,omitempty"`
	// Secret verifies CustomToken (HMAC). Empty means the token is trusted unverified.
	Secret string `yaml:"secret,omitempty"`
	// PersistAnonymous reuses the anonymous identity across runs.
	PersistAnonymous bool `yaml:"persist_anonymous"`
}

// Document store drivers
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverWS     = "ws"
)

// DocStoreConfig selects and configures the document store adapter
type DocStoreConfig struct {
	Driver string `yaml:"driver"`

	SQLitePath string `yaml:"sqlite_path,omitempty"` // defaults to <data_dir>/gitexplorer.db

	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db"`

	URL string `yaml:"url,omitempty"` // ws:// or wss:// endpoint for the remote store
}

// UIConfig holds interaction timings
type UIConfig struct {
	Debounce     time.Duration `yaml:"debounce"`
	SyncGrace    time.Duration `yaml:"sync_grace"`
	InitialQuery string        `yaml:"initial_query"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Events bool   `yaml:"events"` // write otel JSONL events next to the log
	Trace  bool   `yaml:"trace"`  // also record every UI message and key
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".gitexplorer"),
		AppID:   "default-app-id",
		Search: SearchConfig{
			Endpoint:          "https://api.github.com/search/repositories",
			Timeout:           15 * time.Second,
			RequestsPerMinute: 0, // the API enforces its own allowance
		},
		Auth: AuthConfig{
			PersistAnonymous: true,
		},
		DocStore: DocStoreConfig{
			Driver: DriverSQLite,
		},
		UI: UIConfig{
			Debounce:     600 * time.Millisecond,
			SyncGrace:    500 * time.Millisecond,
			InitialQuery: "react",
		},
		Log: LogConfig{
			Level:  "info",
			Events: true,
		},
	}
}

// DefaultPath returns the path to the config file
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gitexplorer", "config.yaml")
}

// Load reads config from path, or returns defaults when the file does not exist.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.Newf(apperr.CodeConfigInvalid, "parse %s: %v", path, err)
		}
	}

	cfg.AutoPopulateFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes config to disk
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // may hold tokens
}

// AutoPopulateFromEnv fills in credentials and endpoints from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("GITEXPLORER_AUTH_TOKEN"); v != "" {
		c.Auth.CustomToken = v
	}
	if v := os.Getenv("GITEXPLORER_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("GITEXPLORER_APP_ID"); v != "" {
		c.AppID = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Search.Token = v
	}
	if v := os.Getenv("GITEXPLORER_DOCSTORE"); v != "" {
		c.DocStore.Driver = v
	}
	if v := os.Getenv("GITEXPLORER_REDIS_ADDR"); v != "" {
		c.DocStore.RedisAddr = v
	}
	if v := os.Getenv("GITEXPLORER_DOCSTORE_URL"); v != "" {
		c.DocStore.URL = v
	}
	if os.Getenv("GITEXPLORER_TRACE") != "" {
		c.Log.Trace = true
	}
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.AppID == "" {
		return apperr.Newf(apperr.CodeConfigInvalid, "app_id is required")
	}
	if c.Search.Endpoint == "" {
		return apperr.Newf(apperr.CodeConfigInvalid, "search.endpoint is required")
	}
	if c.Search.RequestsPerMinute < 0 {
		return apperr.Newf(apperr.CodeConfigInvalid, "search.requests_per_minute must be >= 0, got %d", c.Search.RequestsPerMinute)
	}
	if c.UI.Debounce <= 0 || c.UI.SyncGrace < 0 {
		return apperr.Newf(apperr.CodeConfigInvalid, "ui timings must be positive")
	}

	switch c.DocStore.Driver {
	case DriverSQLite:
	case DriverRedis:
		if c.DocStore.RedisAddr == "" {
			return apperr.Newf(apperr.CodeConfigInvalid, "docstore.redis_addr is required for the redis driver")
		}
	case DriverWS:
		if c.DocStore.URL == "" {
			return apperr.Newf(apperr.CodeConfigInvalid, "docstore.url is required for the ws driver")
		}
	default:
		return apperr.Newf(apperr.CodeConfigInvalid, "unknown docstore driver %q", c.DocStore.Driver)
	}
	return nil
}

// SQLitePath returns the local document database path.
func (c *Config) SQLitePath() string {
	if c.DocStore.SQLitePath != "" {
		return c.DocStore.SQLitePath
	}
	return filepath.Join(c.DataDir, "gitexplorer.db")
}

// IdentityPath returns where the anonymous identity is persisted, or "" when disabled.
func (c *Config) IdentityPath() string {
	if !c.Auth.PersistAnonymous {
		return ""
	}
	return filepath.Join(c.DataDir, "identity")
}

// LogDir returns the directory for log and event files.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}
