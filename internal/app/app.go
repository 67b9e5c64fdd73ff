// Package app assembles the review services shared by the API server and the
// ops CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/compliance-review-api/internal/repository"
	"github.com/noah-isme/compliance-review-api/internal/service"
	"github.com/noah-isme/compliance-review-api/pkg/cache"
	"github.com/noah-isme/compliance-review-api/pkg/config"
	"github.com/noah-isme/compliance-review-api/pkg/database"
	"github.com/noah-isme/compliance-review-api/pkg/notify"
)

const cachePrefix = "compliance-review"

// Container holds the wired dependencies of one process.
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *sqlx.DB
	Redis         *redis.Client
	Metrics       *service.MetricsService
	Notifications *service.NotificationService
	Compliance    *service.ComplianceService
	Review        *service.ReviewService
	Tokens        *service.TokenService
	Resolver      *service.CategoryResolver
}

// Options tweak process specific wiring.
type Options struct {
	// ImmediateNotifications delivers folder events synchronously instead of
	// through the background queue.
	ImmediateNotifications bool
}

// New connects to Postgres (and Redis when the overview cache is enabled) and
// builds every service. Redis being unreachable disables the cache instead of
// failing startup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Metrics:  service.NewMetricsService(),
		Tokens:   service.NewTokenService(cfg.JWT),
		Resolver: service.DefaultCategoryResolver(),
	}

	var cacheRepo service.CacheRepository
	if cfg.Compliance.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, compliance cache disabled", zap.Error(err))
		} else {
			c.Redis = client
			cacheRepo = repository.NewCacheRepository(client, cachePrefix)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, c.Metrics, cfg.Compliance.CacheTTL, logger.Named("cache"), cacheRepo != nil)

	notifier, err := newNotifier(cfg.Notifications, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Notifications = service.NewNotificationService(notifier, cfg.Notifications, c.Metrics, logger.Named("notifications"))

	reviewRepo := repository.NewReviewRepository(db)
	c.Compliance = service.NewComplianceService(reviewRepo, c.Resolver, cacheSvc, logger.Named("compliance"))

	var dispatcher service.FolderEventDispatcher = c.Notifications
	if opts.ImmediateNotifications {
		dispatcher = c.Notifications.Immediate()
	}
	c.Review = service.NewReviewService(reviewRepo, repository.NewAuditRepository(db), logger.Named("review"),
		service.WithCategoryResolver(c.Resolver),
		service.WithEmptyFolderPolicy(cfg.Review.EmptyFolderPolicy),
		service.WithReviewRetry(cfg.Review.MaxAttempts, cfg.Review.RetryBackoff),
		service.WithFolderEventDispatcher(dispatcher),
		service.WithOverviewInvalidator(c.Compliance),
		service.WithReviewMetrics(c.Metrics),
	)
	return c, nil
}

// Close stops background work and releases connections.
func (c *Container) Close() {
	if c.Notifications != nil {
		c.Notifications.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}

func newNotifier(cfg config.NotificationConfig, logger *zap.Logger) (notify.Notifier, error) {
	if !cfg.Enabled || len(cfg.URLs) == 0 {
		return notify.NewLogNotifier(logger.Named("notify")), nil
	}
	notifier, err := notify.NewShoutrrrNotifier(cfg.URLs, cfg.RecipientParam, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("configure notifications: %w", err)
	}
	return notifier, nil
}
