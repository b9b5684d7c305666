package container

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/security"
)

// ConfigureLogging applies level and format to the standard logger and
// installs secret redaction.
func ConfigureLogging(cfg config.AppConfig) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logger := log.StandardLogger()
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)

	switch cfg.LogFormat {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}

	logger.ReplaceHooks(log.LevelHooks{})
	logger.AddHook(security.NewRedactHook())
	return nil
}
