// Package notify delivers plain text notifications to external channels.
package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Message is a channel agnostic notification.
type Message struct {
	Title      string
	Body       string
	Recipients []string
}

// Notifier delivers a message or returns the delivery error.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the logger. It is used when no external
// channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the message.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification",
		zap.String("title", msg.Title),
		zap.String("recipients", strings.Join(msg.Recipients, ",")),
		zap.String("body", msg.Body),
	)
	return nil
}
