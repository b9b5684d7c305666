package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"taxonomy/builder/internal/client"
	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/metrics"
	"taxonomy/builder/internal/output"
	"taxonomy/builder/internal/proxy"
	"taxonomy/builder/internal/queue"
	"taxonomy/builder/internal/repository"
	"taxonomy/builder/internal/server"
	"taxonomy/builder/internal/service"
	"taxonomy/builder/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const pageCacheTTL = 7 * 24 * time.Hour

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Metrics      *metrics.Metrics
	Client       *client.DirectoryClient
	Repository   repository.TaxonomyRepository
	Queue        queue.Queue
	StateManager state.StateManager
	DeadLetters  *output.DeadLetterSink

	Service *service.Service
	Server  *server.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. Redis and
// Postgres are only dialed when enabled in config.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initDatabase(ctx); err != nil {
		c.Close()
		return nil, err
	}

	var publisher output.Publisher
	if c.Queue != nil {
		publisher = queue.NewDeadLetterPublisher(c.Queue)
	}
	c.DeadLetters = output.NewDeadLetterSink(cfg.Output.DeadLetterPath(), publisher)

	proxySupplier, err := proxy.NewProxySupplier(ctx, cfg.Fetch.Proxies, cfg.Fetch.ProxyTestURL)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	opts := []client.Option{client.WithMetrics(c.Metrics), client.WithProxySupplier(proxySupplier)}
	if c.StateManager != nil {
		opts = append(opts, client.WithPageCache(c.StateManager))
	}
	c.Client = client.NewDirectoryClient(cfg.Source, cfg.Fetch, opts...)

	var buildState state.BuildState
	if c.StateManager != nil {
		buildState = c.StateManager
	}
	c.Service = service.NewService(cfg, c.Client, c.Repository, c.Queue, buildState, c.DeadLetters, c.Metrics)
	c.Server = server.New(cfg.Server.Addr(), c.Metrics.Registry(), c.readinessChecks()...)

	return c, nil
}

func (c *Container) initRedis(ctx context.Context) error {
	if !c.Config.Redis.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})
	c.redis = rdb

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, c.Config.Redis)
	if err != nil {
		return err
	}
	c.Queue = redisQueue
	c.StateManager = state.NewRedisStateManager(rdb, pageCacheTTL)
	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled {
		return nil
	}

	db, err := pgxpool.New(ctx, c.Config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db

	repo := repository.NewTaxonomyRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Info("✅ Connected to Postgres successfully")

	c.Repository = repo
	return nil
}

func (c *Container) readinessChecks() []server.Check {
	checks := []server.Check{server.OutputDirWritable(c.Config.Output.Dir)}
	if c.redis != nil {
		rdb := c.redis
		checks = append(checks, server.Check{
			Name: "redis",
			Run:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	if c.Repository != nil {
		checks = append(checks, server.PingCheck("postgres", c.Repository))
	}
	return checks
}

// Run consumes queued builds and serves health and metrics until ctx ends.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// Run workers to process build requests
	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Redis.Workers)
	})

	// Serve probes alongside the workers
	g.Go(func() error {
		return c.Server.Run(ctx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	var errs []error
	if c.Client != nil {
		errs = append(errs, c.Client.Close())
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	log.Debug("Container shut down successfully")
	return errors.Join(errs...)
}
