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

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "factcheck.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 2048, cfg.Anthropic.MaxTokens)
	assert.Equal(t, "https://api.tavily.com", cfg.Tavily.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.InDelta(t, 4, cfg.Search.QPS, 0.001)
	assert.Equal(t, 5, cfg.Search.FailureThreshold)
	assert.Equal(t, 5, cfg.Pipeline.PrecedingSentences)
	assert.Equal(t, 5, cfg.Pipeline.FollowingSentences)
	assert.Equal(t, 3, cfg.Pipeline.MaxQueriesPerClaim)
	assert.Equal(t, 5, cfg.Pipeline.ResultsPerQuery)
	assert.Equal(t, 20, cfg.Pipeline.MaxEvidence)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 5, cfg.Pipeline.MaxConcurrentClaims)
	assert.Equal(t, 8, cfg.Pipeline.StageConcurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/factcheck
log:
  level: debug
  format: console
server:
  port: 9090
pipeline:
  max_concurrent_claims: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/factcheck", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Pipeline.MaxConcurrentClaims)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Pipeline.MaxQueriesPerClaim)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FACTCHECK_STORE_DRIVER", "postgres")
	t.Setenv("FACTCHECK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("FACTCHECK_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Tavily.Key = "tvly-key"
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "factcheck.db"
	cfg.Server.Port = 8080
	cfg.Pipeline.MaxQueriesPerClaim = 3
	cfg.Pipeline.MaxConcurrentClaims = 5
	cfg.Pipeline.StageConcurrency = 8
	return cfg
}

func TestValidateCheck_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("check"))
}

func TestValidateCheck_MissingKeys(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Tavily.Key = ""
	cfg.Jina.Key = ""

	err := cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "tavily.key or jina.key")
}

func TestValidateCheck_JinaOnlyIsEnough(t *testing.T) {
	cfg := validDefaults()
	cfg.Tavily.Key = ""
	cfg.Jina.Key = "jina-key"

	assert.NoError(t, cfg.Validate("check"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/factcheck"
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.MaxConcurrentClaims = 0
	err := cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_claims must be between 1 and 50")

	cfg.Pipeline.MaxConcurrentClaims = 51
	err = cfg.Validate("check")
	assert.Error(t, err)

	cfg.Pipeline.MaxConcurrentClaims = 50
	assert.NoError(t, cfg.Validate("check"))

	cfg.Pipeline.StageConcurrency = 0
	err = cfg.Validate("check")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stage_concurrency must be between 1 and 100")
}
