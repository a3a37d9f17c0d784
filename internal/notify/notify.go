// Package notify tells the operator about replies and finished campaigns.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
)

// Message carries the same notification rendered for chat (HTML) and for email (plain text).
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

const previewChars = 200

// ReplyMessage announces a new reply. The preview is cut to 200 characters.
func ReplyMessage(business, from, reply string) Message {
	preview := reply
	if r := []rune(reply); len(r) > previewChars {
		preview = string(r[:previewChars])
	}

	return Message{
		Subject: fmt.Sprintf("🎉 Reply from %s", business),
		HTML: fmt.Sprintf("🎉 <b>New Reply Received!</b>\n\n<b>Business:</b> %s\n<b>From:</b> %s\n\n<b>Preview:</b>\n%s\n\nCheck your Google Sheet for full details.",
			html.EscapeString(business), html.EscapeString(from), html.EscapeString(preview)),
		Text: fmt.Sprintf("New Reply Received!\n\nBusiness: %s\nFrom: %s\n\nPreview:\n%s\n\nCheck your Google Sheet for full details and respond.",
			business, from, preview),
	}
}

// CampaignCompleteMessage summarizes a finished send run.
func CampaignCompleteMessage(sent int, strategy model.OutreachType) Message {
	name := StrategyName(strategy)
	return Message{
		Subject: fmt.Sprintf("✅ Campaign Complete - %d emails sent", sent),
		HTML: fmt.Sprintf("✅ <b>Campaign Complete!</b>\n\n<b>Emails Sent:</b> %d\n<b>Strategy:</b> %s\n\nNow monitor for replies with the track command.",
			sent, name),
		Text: fmt.Sprintf("Campaign Complete!\n\nEmails Sent: %d\nStrategy: %s\n\nYour emails have been sent successfully. Now you can track responses.",
			sent, name),
	}
}

// TestMessage checks a notification channel end to end.
func TestMessage() Message {
	return Message{
		Subject: "🧪 Test Notification from Outreach System",
		HTML:    "🧪 <b>Test Notification</b>\n\nThis is a test from your Business Outreach System.\nIf you see this, Telegram notifications are working! ✅",
		Text:    "This is a test email from your Business Outreach Automation System.\n\nIf you received this, email notifications are working correctly!\n\n✅ Test Successful",
	}
}

func StrategyName(strategy model.OutreachType) string {
	if strategy == model.OutreachGeneralHelp {
		return "General Help"
	}
	return "Specific Automation"
}

// NoopNotifier logs and drops every message; it stands in when no method is configured.
type NoopNotifier struct {
	Logger *zap.Logger
}

func (n NoopNotifier) Notify(ctx context.Context, msg Message) error {
	logger.OrNop(n.Logger).Debug("notification dropped, no method configured", zap.String("subject", msg.Subject))
	return nil
}

const (
	MethodTelegram = "telegram"
	MethodEmail    = "email"
)

// Select picks the notifier named by method. An unknown or empty method yields the no-op notifier.
func Select(method string, telegram, email Notifier, log *zap.Logger) Notifier {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodTelegram:
		if telegram != nil {
			return telegram
		}
	case MethodEmail:
		if email != nil {
			return email
		}
	}
	if method != "" {
		logger.OrNop(log).Warn("notification method not available", zap.String("method", method))
	}
	return NoopNotifier{Logger: log}
}
