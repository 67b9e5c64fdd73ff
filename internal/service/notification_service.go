package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/pkg/config"
	"github.com/noah-isme/compliance-review-api/pkg/jobs"
	"github.com/noah-isme/compliance-review-api/pkg/notify"
)

const folderEventJobType = "folder_status_event"

// NotificationService delivers folder status events after the review
// transaction has committed. Delivery is asynchronous and best effort.
type NotificationService struct {
	queue    *jobs.Queue
	notifier notify.Notifier
	limiter  *rate.Limiter
	metrics  *MetricsService
	logger   *zap.Logger
	enabled  bool
	timeout  time.Duration
}

// NewNotificationService wires the dispatcher queue around notifier.
func NewNotificationService(notifier notify.Notifier, cfg config.NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	svc := &NotificationService{
		notifier: notifier,
		limiter:  rate.NewLimiter(limit, burst),
		metrics:  metrics,
		logger:   logger,
		enabled:  cfg.Enabled,
		timeout:  cfg.Timeout,
	}
	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			metrics.RecordNotification("failed")
		},
	})
	return svc
}

// Start launches the delivery workers when notifications are enabled.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch schedules delivery of event. It never blocks; a full or stopped
// queue is reported so the caller can surface a warning.
func (s *NotificationService) Dispatch(_ context.Context, event models.FolderStatusEvent) error {
	if !s.enabled {
		return nil
	}
	if len(event.Recipients) == 0 {
		s.metrics.RecordNotification("skipped")
		s.logger.Debug("folder has no notification recipients", zap.String("folder_id", event.FolderID))
		return nil
	}

	job := jobs.Job{ID: uuid.NewString(), Type: folderEventJobType, Payload: event}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.metrics.RecordNotification("dropped")
		return fmt.Errorf("schedule %s notification for folder %s: %w", strings.ToLower(string(event.Kind)), event.FolderID, err)
	}
	s.metrics.RecordNotification("queued")
	return nil
}

// Immediate returns a dispatcher that delivers in the caller's goroutine and
// reports delivery errors directly. Short lived processes use it since the
// queue drops buffered jobs on Stop.
func (s *NotificationService) Immediate() FolderEventDispatcher {
	return immediateDispatcher{svc: s}
}

type immediateDispatcher struct {
	svc *NotificationService
}

func (d immediateDispatcher) Dispatch(ctx context.Context, event models.FolderStatusEvent) error {
	if !d.svc.enabled {
		return nil
	}
	if len(event.Recipients) == 0 {
		d.svc.metrics.RecordNotification("skipped")
		return nil
	}
	job := jobs.Job{ID: uuid.NewString(), Type: folderEventJobType, Payload: event}
	if err := d.svc.deliver(ctx, job); err != nil {
		d.svc.metrics.RecordNotification("failed")
		return fmt.Errorf("deliver %s notification for folder %s: %w", strings.ToLower(string(event.Kind)), event.FolderID, err)
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.FolderStatusEvent)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	sendCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.notifier.Send(sendCtx, RenderFolderEvent(event)); err != nil {
		return err
	}
	s.metrics.RecordNotification("sent")
	s.logger.Info("folder notification sent",
		zap.String("folder_id", event.FolderID),
		zap.String("event", string(event.Kind)),
		zap.Int("recipients", len(event.Recipients)),
	)
	return nil
}

// RenderFolderEvent turns an event into a plain text message.
func RenderFolderEvent(event models.FolderStatusEvent) notify.Message {
	subject := event.CategoryLabel
	if event.OwnerKey != nil {
		subject = fmt.Sprintf("%s (%s)", subject, *event.OwnerKey)
	}

	var title, body string
	switch event.Kind {
	case models.FolderEventCompleted:
		title = fmt.Sprintf("%s folder approved", subject)
		body = fmt.Sprintf("All documents in the %s folder have been approved.", subject)
	default:
		title = fmt.Sprintf("%s folder reopened", subject)
		body = fmt.Sprintf("The %s folder was moved from %s back to %s. Please update and resubmit the affected documents.", subject, event.PreviousStatus, event.Status)
	}
	return notify.Message{Title: title, Body: body, Recipients: append([]string(nil), event.Recipients...)}
}
