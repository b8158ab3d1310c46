package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: postgres
  host: db
llm:
  apiKey: sk-test
  model: gpt-4o
  timeout: 30s
analysis:
  gisAware: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, float32(DefaultTemperature), cfg.LLM.Temp())
	assert.Equal(t, DefaultMaxTokens, cfg.LLM.MaxTokens)
	assert.True(t, cfg.Analysis.GISAware)
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.PostgresDSN(), "host=db port=5432")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "llm:\n  apiKey: from-file\n")
	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("LLM_API_URL", "http://llm.local/v1")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "http://llm.local/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("LLM_API_KEY", "k")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load(writeConfig(t, "database:\n  driver: memory\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingCredentials)

	cfg.LLM.APIKey = "k"
	cfg.LLM.Provider = "bard"
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Contains(t, cfg.MySQLDSN(), "parseTime=true")
	assert.ErrorIs(t, cfg.Validate(), ErrMissingCredentials)
}

func TestLoad_ZeroTemperatureIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "llm:\n  apiKey: k\n  temperature: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Zero(t, cfg.LLM.Temp())

	t.Setenv("LLM_TEMPERATURE", "0.7")
	cfg, err = Load(writeConfig(t, "llm:\n  apiKey: k\n"))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, cfg.LLM.Temp(), 1e-6)
}
