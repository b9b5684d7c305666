package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/domain/task"
	"taxonomy/builder/internal/output"
)

const defaultReadBlock = 5 * time.Second

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error)
	AckTask(ctx context.Context, stream, group, msgID string) error
	CreateGroup(ctx context.Context, stream, group string) error
	AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error)
	EnsureStreamsExist(ctx context.Context) error
	StreamName(taskType string) string
	Group() string
}

type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
	groupName    string
	readBlock    time.Duration
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: "taxonomy:stream:",
		groupName:    cfg.ConsumerGroup,
		readBlock:    defaultReadBlock,
	}

	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}
	return q, nil
}

// SetReadBlock changes how long GetTask waits for new messages.
func (q *RedisQueue) SetReadBlock(d time.Duration) {
	q.readBlock = d
}

func (q *RedisQueue) StreamName(taskType string) string {
	return q.streamPrefix + taskType
}

func (q *RedisQueue) Group() string {
	return q.groupName
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", group, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	taskType := t.TaskType()
	streamName := q.StreamName(taskType)

	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]any{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

func (q *RedisQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}
	return &result[0].Messages[0], nil
}

func (q *RedisQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	return q.redisClient.XAck(ctx, stream, group, msgID).Err()
}

func (q *RedisQueue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}
	return result, nil
}

// EnsureStreamsExist creates every task stream and its consumer group upfront
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	for _, taskType := range task.Types {
		streamName := q.StreamName(taskType)
		if err := q.CreateGroup(ctx, streamName, q.groupName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
		log.Debugf("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}
	return nil
}

// TaskData returns the serialized task carried by msg.
func TaskData(msg redis.XMessage) ([]byte, error) {
	raw, ok := msg.Values["task_data"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no task_data", msg.ID)
	}
	return []byte(raw), nil
}

// DeadLetterPublisher forwards dead letters onto the dead-letter stream.
type DeadLetterPublisher struct {
	queue Queue
}

func NewDeadLetterPublisher(q Queue) *DeadLetterPublisher {
	return &DeadLetterPublisher{queue: q}
}

func (p *DeadLetterPublisher) PublishDeadLetter(ctx context.Context, dl output.DeadLetter) error {
	_, err := p.queue.AddTask(ctx, &task.DeadLetterTask{
		Stage:      dl.Stage,
		Error:      dl.Error,
		Source:     dl.Source,
		RunID:      dl.RunID,
		OccurredAt: dl.OccurredAt,
	})
	return err
}
