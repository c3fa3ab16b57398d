package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.pokemontcg.io/v2", cfg.Catalog.BaseURL)
	assert.Equal(t, "200ms", cfg.Catalog.RequestSpacing)
	assert.Equal(t, "https://api.kolectors.live/api", cfg.Backend.BaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Storage.EncryptToken)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[catalog]\napi_key = \"secret\"\nrequest_spacing = \"1s\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Catalog.APIKey)
	spacing, err := cfg.GetRequestSpacing()
	require.NoError(t, err)
	assert.Equal(t, time.Second, spacing)
	assert.Equal(t, "https://api.pokemontcg.io/v2", cfg.Catalog.BaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[catalog\n"), 0o600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Server.Port = 9090
	cfg.Storage.DBPath = "/tmp/ptcg.db"

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, loaded.Server.Port)

	dbPath, err := loaded.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ptcg.db", dbPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad catalog url", func(c *Config) { c.Catalog.BaseURL = "ftp://example.com" }},
		{"bad backend url", func(c *Config) { c.Backend.BaseURL = "not a url" }},
		{"bad spacing", func(c *Config) { c.Catalog.RequestSpacing = "soon" }},
		{"negative spacing", func(c *Config) { c.Catalog.RequestSpacing = "-1s" }},
		{"bad catalog timeout", func(c *Config) { c.Catalog.Timeout = "x" }},
		{"bad backend timeout", func(c *Config) { c.Backend.Timeout = "x" }},
		{"page size too large", func(c *Config) { c.Catalog.PageSize = 500 }},
		{"encryption without passphrase", func(c *Config) { c.Storage.EncryptToken = true }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, DefaultConfig().SaveTo(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	cfg := DefaultConfig()
	cfg.Catalog.RequestSpacing = "750ms"
	require.NoError(t, cfg.SaveTo(path))

	// A truncate can surface as its own write event, so wait for the final content.
	deadline := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case got := <-changes:
			reloaded = got.Catalog.RequestSpacing == "750ms"
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
