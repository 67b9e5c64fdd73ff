package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

var credentialPattern = regexp.MustCompile(`://[^@/\s]+@`)

// ShoutrrrNotifier fans a message out to every configured service URL.
type ShoutrrrNotifier struct {
	sender         *router.ServiceRouter
	recipientParam string
}

// NewShoutrrrNotifier validates urls and builds a single sender for all of
// them. When recipientParam is set, each recipient is sent a separate copy
// with that service parameter (for example "toaddresses" for smtp).
func NewShoutrrrNotifier(urls []string, recipientParam string, timeout time.Duration) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one notification URL is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, sanitize(err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrNotifier{sender: sender, recipientParam: recipientParam}, nil
}

// Send delivers msg. The router enforces its own timeout so ctx is only
// checked between per-recipient sends.
func (n *ShoutrrrNotifier) Send(ctx context.Context, msg Message) error {
	if n.recipientParam == "" || len(msg.Recipients) == 0 {
		return n.send(msg, nil)
	}

	var errs []error
	for _, recipient := range msg.Recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.send(msg, map[string]string{n.recipientParam: recipient}); err != nil {
			errs = append(errs, fmt.Errorf("recipient %s: %w", recipient, err))
		}
	}
	return errors.Join(errs...)
}

func (n *ShoutrrrNotifier) send(msg Message, extra map[string]string) error {
	params := stypes.Params{}
	if msg.Title != "" {
		params.SetTitle(msg.Title)
	}
	for key, value := range extra {
		params[key] = value
	}

	for _, err := range n.sender.Send(msg.Body, &params) {
		if err != nil {
			return sanitize(err)
		}
	}
	return nil
}

// sanitize strips credentials embedded in service URLs from error text.
func sanitize(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(credentialPattern.ReplaceAllString(err.Error(), "://***@"))
}
