package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// writeConfig stores the YAML in a temporary file and returns its path.
func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadDefaults loads the configuration without a file. It expects the defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Server.WarmupDelay)
	assert.Equal(t, "pt-BR", cfg.Export.Locale)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

// TestLoadFile loads a YAML file that overrides some of the defaults.
func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  warmup_delay: 250ms
database:
  host: db:3306
  user: contacts
export:
  locale: en-US
  timezone: UTC
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.WarmupDelay)
	assert.Equal(t, "db:3306", cfg.Database.Host)
	assert.Equal(t, "contacts", cfg.Database.User)
	assert.Equal(t, "test", cfg.Database.Name)
	tag, err := cfg.Export.LanguageTag()
	require.NoError(t, err)
	assert.Equal(t, language.AmericanEnglish, tag)
}

// TestEnvOverrides verifies that the environment variables win over the file.
func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
database:
  user: fromfile
`)
	t.Setenv("PORT", "7070")
	t.Setenv("DBUSER", "dirk")
	t.Setenv("DBPWD", "bullo92")
	t.Setenv("GIN_LOGGING", "OFF")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "dirk", cfg.Database.User)
	assert.Equal(t, "bullo92", cfg.Database.Password)
	assert.False(t, cfg.Server.GinLogging)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
}

// TestLoadInvalid tries configurations that must be rejected.
func TestLoadInvalid(t *testing.T) {
	invalidConfigs := []string{
		"server: [not, a, map]",
		"server:\n  port: eighty",
		"export:\n  locale: \"!!\"",
		"metrics:\n  enabled: true\n  path: metrics",
	}
	for _, content := range invalidConfigs {
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err, "config: "+content)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestLocationFallback expects UTC for unknown time zones.
func TestLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, ExportConfig{Timezone: "Nowhere/Atlantis"}.Location())
	assert.Equal(t, time.UTC, ExportConfig{}.Location())
}
