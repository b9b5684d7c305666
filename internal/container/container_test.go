package container_test

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/container"
)

func TestNew_WithoutBackends(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		App:    config.AppConfig{Profile: config.ProfileDev, ParserVersion: "0.1.0"},
		Source: config.SourceConfig{PageURL: "https://clutch.co/categories", UserAgent: "test"},
		Fetch:  config.FetchConfig{RateLimitRPS: 5},
		Output: config.OutputConfig{Dir: t.TempDir(), TaxonomyFile: "taxonomy.json", ChoicesFile: "choices.json", DeadLetterFile: "deadletter.jsonl"},
		Server: config.ServerConfig{Host: "localhost", Port: 0},
	}

	c, err := container.New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Service)
	assert.NotNil(t, c.Server)
	assert.Nil(t, c.Queue)
	assert.Nil(t, c.Repository)
	assert.Nil(t, c.StateManager)
}

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, container.ConfigureLogging(config.AppConfig{LogLevel: "debug", LogFormat: "json"}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	assert.Error(t, container.ConfigureLogging(config.AppConfig{LogLevel: "loud"}))
	assert.Error(t, container.ConfigureLogging(config.AppConfig{LogLevel: "info", LogFormat: "xml"}))

	require.NoError(t, container.ConfigureLogging(config.AppConfig{LogLevel: "info", LogFormat: "text"}))
}
