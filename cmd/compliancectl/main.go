// Command compliancectl runs maintenance actions against the review workflow
// using the same configuration as the API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/compliance-review-api/internal/app"
	"github.com/noah-isme/compliance-review-api/internal/service"
	"github.com/noah-isme/compliance-review-api/pkg/config"
	"github.com/noah-isme/compliance-review-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(service.DefaultCategoryResolver(), openReviewActions)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openReviewActions loads configuration and wires the review service with
// synchronous notification delivery.
func openReviewActions(ctx context.Context) (reviewActions, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	container, err := app.New(ctx, cfg, logr.Named("compliancectl"), app.Options{ImmediateNotifications: true})
	if err != nil {
		_ = logr.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		container.Close()
		if err := logr.Sync(); err != nil {
			logr.Debug("logger sync", zap.Error(err))
		}
	}
	return container.Review, cleanup, nil
}
