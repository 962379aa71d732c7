package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"previz_studio/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DB_FILE", "LOG_LEVEL", "GENERATION_TIMEOUT", "DEFAULT_ENGINE", "BRIA_API_KEY", "FAL_KEY",
	"GEMINI_API_KEY", "BRIA_URL", "FAL_URL", "GEMINI_URL", "GEMINI_MODEL", "DISCORD_TOKEN",
	"DISCORD_GUILD", "METRICS_ADDR", "PLATE_WIDTH", "PLATE_HEIGHT", "PLATE_MAX_EDGE",
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, errs := Load("")
	require.Empty(t, errs)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultGenerationTimeout, cfg.GenerationTimeout)
	assert.Equal(t, DefaultPlateWidth, cfg.PlateWidth)
	assert.Equal(t, DefaultPlateHeight, cfg.PlateHeight)
	assert.Equal(t, DefaultPlateMaxEdge, cfg.PlateMaxEdge)
	assert.Equal(t, string(entities.EngineBria), cfg.DefaultEngine)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := writeYAML(t, `
db_file: /var/lib/previz.sqlite
log_level: debug
generation_timeout: 45s
discord_token: from-file
fal_api_key: file-fal
gemini_model: gemini-exp
plate_width: 640
plate_height: 360
`)

	t.Setenv("FAL_KEY", "env-fal")
	t.Setenv("PLATE_WIDTH", "800")

	cfg, errs := Load(path)
	require.Empty(t, errs)

	assert.Equal(t, "/var/lib/previz.sqlite", cfg.DBFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "from-file", cfg.DiscordToken)
	assert.Equal(t, "env-fal", cfg.FalAPIKey)
	assert.Equal(t, "env-fal", cfg.Credential(entities.EngineFal))
	assert.Equal(t, "gemini-exp", cfg.GeminiModel)
	assert.Equal(t, 800, cfg.PlateWidth)
	assert.Equal(t, 360, cfg.PlateHeight)
}

func TestLoadCollectsErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLATE_HEIGHT", "tall")
	t.Setenv("GENERATION_TIMEOUT", "soon")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("DEFAULT_ENGINE", "DALLE")

	_, errs := Load("")

	assert.Len(t, errs, 6)
	assert.Contains(t, errs, ErrMissingDiscordToken)
	assert.Contains(t, errs, ErrInvalidLogLevel)
	assert.Contains(t, errs, ErrInvalidPlateSize)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, errs := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Nil(t, cfg)
	require.Len(t, errs, 1)
}
