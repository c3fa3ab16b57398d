package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Card catalog (pokemontcg.io) configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Collection backend configuration
	Backend BackendConfig `toml:"backend"`

	// Local storage configuration
	Storage StorageConfig `toml:"storage"`

	// Local API server configuration
	Server ServerConfig `toml:"server"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// CatalogConfig contains card catalog API settings.
type CatalogConfig struct {
	BaseURL        string `toml:"base_url"`        // Catalog API root
	APIKey         string `toml:"api_key"`         // Static X-Api-Key credential
	RequestSpacing string `toml:"request_spacing"` // Minimum delay between requests (e.g., "200ms")
	Timeout        string `toml:"timeout"`         // Per-request timeout
	PageSize       int    `toml:"page_size"`       // Cards per page for card listings (0 = API default)
}

// BackendConfig contains collection backend settings.
type BackendConfig struct {
	BaseURL string `toml:"base_url"` // Backend API root (login, register, collections, user)
	Timeout string `toml:"timeout"`  // Per-request timeout
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	DBPath       string `toml:"db_path"`       // SQLite file (empty = ~/.ptcg-companion/data.db)
	EncryptToken bool   `toml:"encrypt_token"` // Encrypt the persisted auth token
	Passphrase   string `toml:"passphrase"`    // Passphrase for token encryption
}

// ServerConfig contains local API server settings.
type ServerConfig struct {
	Port        int    `toml:"port"`
	FrontendURL string `toml:"frontend_url"`
	OpenBrowser bool   `toml:"open_browser"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:        "https://api.pokemontcg.io/v2",
			APIKey:         "",
			RequestSpacing: "200ms",
			Timeout:        "30s",
			PageSize:       0,
		},
		Backend: BackendConfig{
			BaseURL: "https://api.kolectors.live/api",
			Timeout: "30s",
		},
		Storage: StorageConfig{
			DBPath:       "",
			EncryptToken: false,
		},
		Server: ServerConfig{
			Port:        8080,
			FrontendURL: "",
			OpenBrowser: false,
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the application directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".ptcg-companion")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return dir, nil
}

// Path returns the path to the default configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Missing keys keep their
// default values; a missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// May hold the API key and passphrase
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if err := validateBaseURL("catalog", c.Catalog.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("backend", c.Backend.BaseURL); err != nil {
		return err
	}

	spacing, err := time.ParseDuration(c.Catalog.RequestSpacing)
	if err != nil {
		return fmt.Errorf("invalid catalog request spacing %q: %w", c.Catalog.RequestSpacing, err)
	}
	if spacing < 0 {
		return fmt.Errorf("catalog request spacing cannot be negative: %s", spacing)
	}

	if _, err := time.ParseDuration(c.Catalog.Timeout); err != nil {
		return fmt.Errorf("invalid catalog timeout %q: %w", c.Catalog.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
		return fmt.Errorf("invalid backend timeout %q: %w", c.Backend.Timeout, err)
	}

	if c.Catalog.PageSize < 0 || c.Catalog.PageSize > 250 {
		return fmt.Errorf("catalog page size must be between 0 and 250: %d", c.Catalog.PageSize)
	}

	if c.Storage.EncryptToken && c.Storage.Passphrase == "" {
		return fmt.Errorf("storage passphrase is required when encrypt_token is enabled")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

func validateBaseURL(section, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s base URL %q: %w", section, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s base URL %q: scheme must be http or https", section, raw)
	}
	return nil
}

// GetRequestSpacing returns the catalog request spacing as a duration.
func (c *Config) GetRequestSpacing() (time.Duration, error) {
	return time.ParseDuration(c.Catalog.RequestSpacing)
}

// GetCatalogTimeout returns the catalog request timeout as a duration.
func (c *Config) GetCatalogTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Catalog.Timeout)
}

// GetBackendTimeout returns the backend request timeout as a duration.
func (c *Config) GetBackendTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Backend.Timeout)
}

// DatabasePath returns the configured database path, falling back to
// data.db inside the application directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data.db"), nil
}
