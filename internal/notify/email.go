package notify

import (
	"context"
	"fmt"

	"github.com/unclebandit/outreach-backend/internal/mailer"
)

// OneShotSender sends a single message over a fresh connection.
type OneShotSender interface {
	SendOne(ctx context.Context, email mailer.OutgoingEmail) error
}

type EmailNotifier struct {
	Sender OneShotSender
	To     string
}

func (e *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if e.To == "" {
		return fmt.Errorf("email notifications not configured: set NOTIFICATION_EMAIL")
	}
	err := e.Sender.SendOne(ctx, mailer.OutgoingEmail{To: e.To, Subject: msg.Subject, Body: msg.Text})
	if err != nil {
		return fmt.Errorf("send email notification: %w", err)
	}
	return nil
}

var (
	_ Notifier      = (*EmailNotifier)(nil)
	_ OneShotSender = (*mailer.SMTPDialer)(nil)
)
