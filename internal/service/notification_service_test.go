package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/pkg/config"
	"github.com/noah-isme/compliance-review-api/pkg/jobs"
	"github.com/noah-isme/compliance-review-api/pkg/notify"
)

type notifierStub struct {
	mu    sync.Mutex
	sent  []notify.Message
	err   error
	calls chan struct{}
}

func newNotifierStub(err error) *notifierStub {
	return &notifierStub{err: err, calls: make(chan struct{}, 16)}
}

func (n *notifierStub) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	n.calls <- struct{}{}
	return n.err
}

func (n *notifierStub) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}

func waitCalls(t *testing.T, n *notifierStub, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		select {
		case <-n.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d notifier calls, got %d", count, i)
		}
	}
}

func notificationConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:    true,
		Workers:    1,
		BufferSize: 4,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	}
}

func completedEvent() models.FolderStatusEvent {
	owner := "w-7"
	return models.FolderStatusEvent{
		Kind:           models.FolderEventCompleted,
		FolderID:       "folder-1",
		Category:       models.CategoryPersonnel,
		CategoryLabel:  "Personnel",
		OwnerKey:       &owner,
		Recipients:     []string{"ops@acme.io"},
		PreviousStatus: models.ReviewStatusSubmitted,
		Status:         models.ReviewStatusApproved,
	}
}

func TestNotificationServiceDelivers(t *testing.T) {
	defer goleak.VerifyNone(t)

	notifier := newNotifierStub(nil)
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, notificationConfig(), metrics, nil)
	svc.Start(context.Background())

	require.NoError(t, svc.Dispatch(context.Background(), completedEvent()))
	waitCalls(t, notifier, 1)
	svc.Stop()

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Personnel (w-7) folder approved", msgs[0].Title)
	assert.Equal(t, []string{"ops@acme.io"}, msgs[0].Recipients)
	assert.Equal(t, 1.0, counterValue(t, metrics, "notifications_total", map[string]string{"result": "queued"}))
}

func TestNotificationServiceGivesUpAfterRetries(t *testing.T) {
	defer goleak.VerifyNone(t)

	notifier := newNotifierStub(errors.New("smtp unavailable"))
	metrics := NewMetricsService()
	cfg := notificationConfig()
	cfg.MaxRetries = 1
	svc := NewNotificationService(notifier, cfg, metrics, nil)
	svc.Start(context.Background())

	require.NoError(t, svc.Dispatch(context.Background(), completedEvent()))
	waitCalls(t, notifier, 2)
	require.Eventually(t, func() bool {
		return counterValue(t, metrics, "notifications_total", map[string]string{"result": "failed"}) == 1
	}, time.Second, 5*time.Millisecond)
	svc.Stop()
}

func TestNotificationServiceDisabled(t *testing.T) {
	notifier := newNotifierStub(nil)
	cfg := notificationConfig()
	cfg.Enabled = false
	svc := NewNotificationService(notifier, cfg, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Dispatch(context.Background(), completedEvent()))
	assert.Empty(t, notifier.messages())
}

func TestNotificationServiceSkipsFoldersWithoutRecipients(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewNotificationService(newNotifierStub(nil), notificationConfig(), metrics, nil)

	event := completedEvent()
	event.Recipients = nil
	require.NoError(t, svc.Dispatch(context.Background(), event))
	assert.Equal(t, 1.0, counterValue(t, metrics, "notifications_total", map[string]string{"result": "skipped"}))
}

func TestNotificationServiceReportsUnscheduledDelivery(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewNotificationService(newNotifierStub(nil), notificationConfig(), metrics, nil)

	err := svc.Dispatch(context.Background(), completedEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, jobs.ErrQueueClosed)
	assert.Contains(t, err.Error(), "folder-1")
	assert.Equal(t, 1.0, counterValue(t, metrics, "notifications_total", map[string]string{"result": "dropped"}))
}

func TestRenderFolderEvent(t *testing.T) {
	event := completedEvent()
	event.Kind = models.FolderEventReopened
	event.OwnerKey = nil
	event.CategoryLabel = "Environmental"
	event.PreviousStatus = models.ReviewStatusApproved
	event.Status = models.ReviewStatusDraft

	msg := RenderFolderEvent(event)
	assert.Equal(t, "Environmental folder reopened", msg.Title)
	assert.Contains(t, msg.Body, "from APPROVED back to DRAFT")

	msg.Recipients[0] = "changed"
	assert.Equal(t, "ops@acme.io", event.Recipients[0])
}

func TestNotificationServiceImmediateDispatch(t *testing.T) {
	notifier := newNotifierStub(errors.New("webhook 500"))
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, notificationConfig(), metrics, nil)

	err := svc.Immediate().Dispatch(context.Background(), completedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook 500")
	assert.Len(t, notifier.messages(), 1)
	assert.Equal(t, 1.0, counterValue(t, metrics, "notifications_total", map[string]string{"result": "failed"}))

	notifier.err = nil
	require.NoError(t, svc.Immediate().Dispatch(context.Background(), completedEvent()))
	assert.Equal(t, 1.0, counterValue(t, metrics, "notifications_total", map[string]string{"result": "sent"}))
}
