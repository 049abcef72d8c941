package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingOptional(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"), true)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
models:
  dir: /srv/models
http:
  port: 9090
  timeout: 5s
weather:
  station: KGMU
  cache_ttl: 1m
log:
  level: debug
  file: /var/log/comfortcast.log
`)

	c, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/srv/models", c.Models.Dir)
	assert.Equal(t, 9090, c.Http.Port)
	assert.Equal(t, 5*time.Second, c.Http.Timeout)
	assert.Equal(t, "KGMU", c.Weather.Station)
	assert.Equal(t, time.Minute, c.Weather.CacheTTL)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "/var/log/comfortcast.log", c.Log.File)

	// untouched sections keep their defaults
	assert.Equal(t, "https://api.weather.gov", c.Weather.BaseURL)
	assert.Equal(t, "comfortcast.db", c.Database.Path)
	assert.Equal(t, []string{"*"}, c.Http.AllowedOrigins)
}

func TestLoadEmptyFile(t *testing.T) {
	c, err := Load(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "models: [unterminated"},
		{"empty models dir", "models:\n  dir: \"\"\n"},
		{"port", "http:\n  port: 70000\n"},
		{"timeout", "http:\n  timeout: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), true)
			assert.Error(t, err)
		})
	}
}

func TestLoadStaticRooms(t *testing.T) {
	path := writeConfig(t, `
rooms:
  max_age: 30m
  static:
    - place_id: 8916
      temp: 71.5
      humidity: 44
`)

	c, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, c.Rooms.MaxAge)
	require.Len(t, c.Rooms.Static, 1)
	assert.Equal(t, 8916, c.Rooms.Static[0].PlaceID)
	assert.Equal(t, 71.5, c.Rooms.Static[0].Temp)

	_, err = Load(writeConfig(t, "rooms:\n  max_age: 0s\n"), true)
	assert.Error(t, err)
}
