package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taxonomy/builder/internal/domain"
)

// PageCache stores fetched pages with their validators for conditional GET.
type PageCache interface {
	GetPage(ctx context.Context, url string) (domain.CachedPage, bool, error)
	SetPage(ctx context.Context, url string, page domain.CachedPage) error
}

// BuildState tracks the last successful build per source page.
type BuildState interface {
	GetLastBuild(ctx context.Context, sourcePage string) (LastBuild, bool, error)
	SetLastBuild(ctx context.Context, sourcePage string, build LastBuild) error
}

// StateManager is the Redis-backed store for both.
type StateManager interface {
	PageCache
	BuildState
}

// LastBuild summarizes a finished run.
type LastBuild struct {
	RunID     string
	Items     int
	Completed time.Time
}

type redisStateManager struct {
	redisClient *redis.Client
	pagePrefix  string
	buildPrefix string
	pageTTL     time.Duration
}

// NewRedisStateManager keeps pages as hashes that expire after pageTTL;
// zero means no expiry.
func NewRedisStateManager(redisClient *redis.Client, pageTTL time.Duration) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		pagePrefix:  "taxonomy:page:",
		buildPrefix: "taxonomy:build:",
		pageTTL:     pageTTL,
	}
}

func (s *redisStateManager) GetPage(ctx context.Context, url string) (domain.CachedPage, bool, error) {
	vals, err := s.redisClient.HGetAll(ctx, s.pagePrefix+url).Result()
	if err != nil {
		return domain.CachedPage{}, false, fmt.Errorf("failed to get cached page %s: %w", url, err)
	}
	if len(vals) == 0 {
		return domain.CachedPage{}, false, nil
	}
	return domain.CachedPage{
		ETag:         vals["etag"],
		LastModified: vals["last_modified"],
		Body:         vals["body"],
	}, true, nil
}

func (s *redisStateManager) SetPage(ctx context.Context, url string, page domain.CachedPage) error {
	key := s.pagePrefix + url
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"etag", page.ETag,
			"last_modified", page.LastModified,
			"body", page.Body,
		)
		if s.pageTTL > 0 {
			pipe.Expire(ctx, key, s.pageTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache page %s: %w", url, err)
	}
	return nil
}

func (s *redisStateManager) GetLastBuild(ctx context.Context, sourcePage string) (LastBuild, bool, error) {
	vals, err := s.redisClient.HGetAll(ctx, s.buildPrefix+sourcePage).Result()
	if err != nil {
		return LastBuild{}, false, fmt.Errorf("failed to get last build for %s: %w", sourcePage, err)
	}
	if len(vals) == 0 {
		return LastBuild{}, false, nil
	}

	var build LastBuild
	build.RunID = vals["run_id"]
	if _, err := fmt.Sscan(vals["items"], &build.Items); err != nil {
		return LastBuild{}, false, fmt.Errorf("failed to parse item count for %s: %w", sourcePage, err)
	}
	if build.Completed, err = time.Parse(time.RFC3339, vals["completed"]); err != nil {
		return LastBuild{}, false, fmt.Errorf("failed to parse completion time for %s: %w", sourcePage, err)
	}
	return build, true, nil
}

func (s *redisStateManager) SetLastBuild(ctx context.Context, sourcePage string, build LastBuild) error {
	err := s.redisClient.HSet(ctx, s.buildPrefix+sourcePage,
		"run_id", build.RunID,
		"items", build.Items,
		"completed", build.Completed.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set last build for %s: %w", sourcePage, err)
	}
	return nil
}
