package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/builder/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)

	assert.Equal(t, config.ProfileDev, cfg.App.Profile)
	assert.Equal(t, "0.1.0", cfg.App.ParserVersion)
	assert.Equal(t, "https://clutch.co/categories", cfg.Source.PageURL)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 5, cfg.Fetch.RateLimitRPS)
	assert.False(t, cfg.Fetch.RespectRobots)
	assert.Equal(t, 10*time.Second, cfg.Fetch.BackoffMax)
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.BackoffBase)
	assert.Equal(t, filepath.Join("data", "taxonomy.json"), cfg.Output.TaxonomyPath())
	assert.Equal(t, filepath.Join("data", "choices.json"), cfg.Output.ChoicesPath())
	assert.Equal(t, 2*time.Minute, cfg.Redis.MinIdleTime)
	assert.Equal(t, 30*time.Minute, cfg.Fetch.CircuitBreakerDelay())
}

func TestLoad_ProfileDefaultsYieldToFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
app:
  profile: prod
fetch:
  rate_limit_rps: 3
output:
  dir: /var/lib/taxonomy
  taxonomy_file: out/tax.json
`)

	cfg, err := config.Load(config.Options{Path: path})
	require.NoError(t, err)

	assert.Equal(t, config.ProfileProd, cfg.App.Profile)
	assert.Equal(t, 3, cfg.Fetch.RateLimitRPS, "file wins over profile")
	assert.True(t, cfg.Fetch.RespectRobots)
	assert.True(t, cfg.Fetch.UseCache)
	assert.Equal(t, 60*time.Second, cfg.Fetch.BackoffMax)
	assert.Equal(t, filepath.Join("/var/lib/taxonomy", "out", "tax.json"), cfg.Output.TaxonomyPath())
	assert.Equal(t, filepath.Join("/var/lib/taxonomy", "out", "choices.json"), cfg.Output.ChoicesPath())
}

func TestLoad_ProfileOption(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(config.Options{Profile: "CI"})
	require.NoError(t, err)

	assert.Equal(t, config.ProfileCI, cfg.App.Profile)
	assert.Equal(t, 2, cfg.Fetch.RateLimitRPS)
	assert.Equal(t, 20*time.Second, cfg.Fetch.BackoffMax)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TB_FETCH_RATE_LIMIT_RPS", "7")
	t.Setenv("TB_REDIS_ENABLED", "true")
	t.Setenv("TB_APP_PROFILE", "ci")

	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Fetch.RateLimitRPS)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, config.ProfileCI, cfg.App.Profile)
	assert.True(t, cfg.Fetch.RespectRobots)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.Load(config.Options{Profile: "staging"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidProfile))

	_, err = config.Load(config.Options{Path: writeConfig(t, "app: [unclosed")})
	require.Error(t, err)
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := config.ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, config.ProfileDev, p.Name)

	p, err = config.ParseProfile(" Prod ")
	require.NoError(t, err)
	assert.Equal(t, 1, p.RateLimitRPS)

	_, err = config.ParseProfile("qa")
	assert.ErrorIs(t, err, config.ErrInvalidProfile)
}

func TestDatabaseDSN(t *testing.T) {
	t.Parallel()

	dsn := config.DatabaseConfig{Host: "db", Port: 5432, Name: "taxonomy", User: "u", Password: "p@ss"}.DSN()
	assert.Equal(t, "postgres://u:p%40ss@db:5432/taxonomy", dsn)
}
