package security

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// RedactHook scrubs secrets from log messages and string fields before any
// formatter sees them.
type RedactHook struct{}

func NewRedactHook() *RedactHook {
	return &RedactHook{}
}

func (h *RedactHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *RedactHook) Fire(entry *log.Entry) error {
	entry.Message = Redact(entry.Message)

	for key, value := range entry.Data {
		switch v := value.(type) {
		case string:
			entry.Data[key] = Redact(v)
		case error:
			entry.Data[key] = Redact(v.Error())
		case fmt.Stringer:
			entry.Data[key] = Redact(v.String())
		}
	}
	return nil
}
