package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.Paths.RawDir)
	assert.Equal(t, "data/reference", cfg.Paths.ReferenceDir)
	assert.Equal(t, "data/voices.db", cfg.Paths.DB)
	assert.Equal(t, "data/static/voices-site.json", cfg.Paths.SiteJSON)
	assert.Equal(t, "temp/tts-data", cfg.Paths.LegacyDir)
	assert.Equal(t, "py3-tts-wrapper", cfg.Harmonize.DefaultSourceName)
	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
paths:
  raw_dir: /srv/raw
  db: /srv/voices.db
log:
  level: debug
  format: json
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/raw", cfg.Paths.RawDir)
	assert.Equal(t, "/srv/voices.db", cfg.Paths.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "data/reference", cfg.Paths.ReferenceDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
paths:
  db: from-file.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("VOICECAT_PATHS_DB", "from-env.db")
	t.Setenv("VOICECAT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from-env.db", cfg.Paths.DB)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("paths: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Paths: PathsConfig{
			RawDir:   "data/raw",
			DB:       "data/voices.db",
			SiteJSON: "data/static/voices-site.json",
		},
		Server: ServerConfig{Port: 8001},
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"harmonize", "export", "serve", "stats"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateHarmonize_MissingPaths(t *testing.T) {
	cfg := validDefaults()
	cfg.Paths.RawDir = ""
	cfg.Paths.DB = ""

	err := cfg.Validate("harmonize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paths.raw_dir is required")
	assert.Contains(t, err.Error(), "paths.db is required")
}

func TestValidateExport_MissingSiteJSON(t *testing.T) {
	cfg := validDefaults()
	cfg.Paths.SiteJSON = ""

	err := cfg.Validate("export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paths.site_json is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}
