package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/compliance-review-api/api/swagger"
	"github.com/noah-isme/compliance-review-api/internal/app"
	"github.com/noah-isme/compliance-review-api/internal/handler"
	"github.com/noah-isme/compliance-review-api/internal/middleware"
	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/pkg/config"
	"github.com/noah-isme/compliance-review-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/compliance-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/compliance-review-api/pkg/middleware/requestid"
)

// @title Compliance Review API
// @version 1.0.0
// @description Document and folder review workflow for contractor compliance folders
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr, app.Options{})
	if err != nil {
		logr.Fatal("failed to build services", zap.Error(err))
	}
	defer container.Close()

	container.Notifications.Start(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logr.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown incomplete", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newRouter(cfg *config.Config, c *app.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(c.Metrics))

	deps := map[string]handler.Pinger{"postgres": c.DB}
	if c.Redis != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	metricsHandler := handler.NewMetricsHandler(c.Metrics, deps)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	reviewHandler := handler.NewReviewHandler(c.Review)
	complianceHandler := handler.NewComplianceHandler(c.Compliance)

	reviewers := middleware.RequireRoles(models.RoleReviewer, models.RoleAdmin)
	operators := middleware.RequireRoles(models.RoleSystem, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(c.Tokens), middleware.WithResponseMeta())
	{
		api.GET("/categories", complianceHandler.Categories)

		api.POST("/documents/:id/review", reviewers, reviewHandler.ReviewDocument)
		api.POST("/documents/:id/status", operators, reviewHandler.SyncDocumentStatus)

		api.GET("/folders/:id", reviewers, reviewHandler.GetFolder)
		api.POST("/folders/:id/review", reviewers, reviewHandler.ReviewFolder)
		api.POST("/folders/:id/recompute", operators, reviewHandler.RecomputeFolder)

		api.GET("/startup-folders/:id/compliance", reviewers, complianceHandler.Overview)
		api.GET("/startup-folders/:id/compliance/export", reviewers, complianceHandler.Export)
	}
	return r
}
