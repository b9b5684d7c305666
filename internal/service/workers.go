package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taxonomy/builder/internal/domain/task"
	"taxonomy/builder/internal/queue"
)

const maxBuildAttempts = 3

var ErrNoQueue = errors.New("redis queue is not configured")

// Enqueue pushes a build request onto the build stream.
func (s *Service) Enqueue(ctx context.Context, req BuildRequest) (string, error) {
	if s.queue == nil {
		return "", ErrNoQueue
	}

	id, err := s.queue.AddTask(ctx, &task.BuildTask{
		SourcePage:   req.SourcePage,
		FixturePath:  req.FixturePath,
		OutputPath:   req.OutputPath,
		IncludeAllIn: req.IncludeAllIn,
		Attempt:      1,
		RequestedAt:  s.now().UTC(),
	})
	if err != nil {
		return "", err
	}

	log.Infof("📨 Enqueued build for %s as %s", req.source(), id)
	return id, nil
}

// RunWorkers consumes build requests until ctx is cancelled.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		return ErrNoQueue
	}

	var wg sync.WaitGroup
	streamName := s.queue.StreamName(task.BuildTaskType)
	s.runWorkersForStream(ctx, &wg, max(numWorkers, 1), streamName)

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName string) {
	group := s.queue.Group()
	minIdleTime := s.cfg.Redis.MinIdleTime
	if minIdleTime <= 0 {
		minIdleTime = time.Minute
	}

	// Auto-claimer for messages left pending by crashed workers
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%d", time.Now().UnixNano())
				claimedMessages, err := s.queue.AutoClaim(ctx, group, consumer, streamName, minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s", len(claimedMessages), streamName)
				}
				for _, msg := range claimedMessages {
					if err := s.processMessage(ctx, streamName, &msg); err != nil {
						log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("build-worker-%d", workerID)
			log.Infof("🚀 Starting build worker %d as consumer %s", workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Build worker %d stopping", workerID)
					return
				default:
				}

				msg, err := s.queue.GetTask(ctx, group, consumer, streamName)
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
					select {
					case <-ctx.Done():
					case <-time.After(time.Second):
					}
					continue
				}

				if msg != nil {
					if err := s.processMessage(ctx, streamName, msg); err != nil {
						log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}
	if taskType != task.BuildTaskType {
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	data, err := queue.TaskData(*msg)
	if err != nil {
		return err
	}
	buildTask, err := task.UnmarshalTask[*task.BuildTask](data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal build task data: %w", err)
	}

	req := BuildRequest{
		SourcePage:   buildTask.SourcePage,
		FixturePath:  buildTask.FixturePath,
		OutputPath:   buildTask.OutputPath,
		IncludeAllIn: buildTask.IncludeAllIn,
	}
	if _, err := s.Build(ctx, req); err != nil {
		s.retry(ctx, buildTask, err)
	}

	if err := s.queue.AckTask(ctx, streamName, s.queue.Group(), msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}
	return nil
}

// retry re-enqueues a failed build until maxBuildAttempts is reached. The
// failure itself is already dead-lettered by Build.
func (s *Service) retry(ctx context.Context, buildTask *task.BuildTask, cause error) {
	if buildTask.Attempt >= maxBuildAttempts {
		log.Errorf("❌ Giving up on %s after %d attempts: %v", buildTask.SourcePage, buildTask.Attempt, cause)
		return
	}

	next := *buildTask
	next.Attempt++
	if _, err := s.queue.AddTask(ctx, &next); err != nil {
		log.Errorf("❌ Failed to re-enqueue build for %s: %v", buildTask.SourcePage, err)
		return
	}
	log.Warnf("🔄 Re-enqueued build for %s (attempt %d): %v", buildTask.SourcePage, next.Attempt, cause)
}
