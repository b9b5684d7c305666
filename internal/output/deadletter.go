package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DeadLetter records a failed run for later inspection or replay.
type DeadLetter struct {
	Stage      string    `json:"stage"`
	Error      string    `json:"error"`
	Source     string    `json:"source"`
	RunID      string    `json:"run_id,omitempty"`
	OccurredAt time.Time `json:"ts"`
}

// Publisher forwards dead letters to another sink, e.g. a stream.
type Publisher interface {
	PublishDeadLetter(ctx context.Context, dl DeadLetter) error
}

// DeadLetterSink appends dead letters to a JSONL file and, when set,
// forwards them to a publisher. Failures are logged, never returned, so
// recording a failure cannot mask the original error.
type DeadLetterSink struct {
	path      string
	publisher Publisher
	mu        sync.Mutex
}

func NewDeadLetterSink(path string, publisher Publisher) *DeadLetterSink {
	return &DeadLetterSink{path: path, publisher: publisher}
}

func (s *DeadLetterSink) Record(ctx context.Context, dl DeadLetter) {
	if dl.OccurredAt.IsZero() {
		dl.OccurredAt = time.Now().UTC().Truncate(time.Second)
	}

	if err := s.append(dl); err != nil {
		log.Warnf("⚠️ Failed to write dead letter to %s: %v", s.path, err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDeadLetter(ctx, dl); err != nil {
			log.Warnf("⚠️ Failed to publish dead letter: %v", err)
		}
	}
}

func (s *DeadLetterSink) append(dl DeadLetter) error {
	if s.path == "" {
		return nil
	}
	line, err := Marshal(dl, false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append: %w", err)
	}
	return nil
}
