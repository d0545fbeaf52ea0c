package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultEndpoint, cfg.API.Endpoint)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, "America/Merida", cfg.UI.Timezone)
	require.Equal(t, "Bitacora - BT01", cfg.UI.Title)
	require.True(t, cfg.UI.FetchOnSelect)
	require.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[api]
endpoint = "http://localhost:9999/bitacora"
timeout = "3s"

[ui]
title = "Caja 2"
fetch_on_select = false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("BITACORA_UI_TIMEZONE", "UTC")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9999/bitacora", cfg.API.Endpoint)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, "Caja 2", cfg.UI.Title)
	require.False(t, cfg.UI.FetchOnSelect)
	require.Equal(t, "UTC", cfg.UI.Timezone)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntimezone = \"Mars/Olympus\"\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ui.timezone")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nendpoint ="), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, WriteDefault(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `timeout = "15s"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	require.Error(t, WriteDefault(path, false), "existing file must not be overwritten")
	require.NoError(t, WriteDefault(path, true))
}
