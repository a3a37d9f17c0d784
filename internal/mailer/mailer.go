// Package mailer delivers outreach emails over SMTP and reads replies from the mailbox.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/unclebandit/outreach-backend/internal/config"
)

type OutgoingEmail struct {
	To      string
	Subject string
	Body    string
}

// Dialer opens one authenticated session that is reused for a whole send run.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

type Session interface {
	Send(ctx context.Context, email OutgoingEmail) error
	Close() error
}

// ErrInvalidRecipient is returned before any network I/O for an unusable To address.
var ErrInvalidRecipient = errors.New("invalid recipient address")

type FailureKind string

const (
	FailureRecipientRejected FailureKind = "recipient_rejected"
	FailureSenderRejected    FailureKind = "sender_rejected"
	FailureTransport         FailureKind = "transport"
)

// Classify names the failure class of a Send error for operator diagnostics.
func Classify(err error) FailureKind {
	if errors.Is(err, ErrInvalidRecipient) {
		return FailureRecipientRejected
	}
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrSMTPRcptTo, mail.ErrGetRcpts:
			return FailureRecipientRejected
		case mail.ErrSMTPMailFrom, mail.ErrGetSender:
			return FailureSenderRejected
		}
	}
	return FailureTransport
}

// SMTPDialer authenticates with PLAIN auth over mandatory STARTTLS.
type SMTPDialer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTPDialer(cfg config.SMTP) *SMTPDialer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPDialer{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     from,
	}
}

func (d *SMTPDialer) client() (*mail.Client, error) {
	return mail.NewClient(d.Host,
		mail.WithPort(d.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(d.Username),
		mail.WithPassword(d.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
}

func (d *SMTPDialer) Dial(ctx context.Context) (Session, error) {
	c, err := d.client()
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s:%d as %s: %w", d.Host, d.Port, d.Username, err)
	}
	return &smtpSession{client: c, from: d.From}, nil
}

// SendOne dials, sends a single message and disconnects.
func (d *SMTPDialer) SendOne(ctx context.Context, email OutgoingEmail) error {
	msg, err := NewMessage(d.From, email)
	if err != nil {
		return err
	}
	c, err := d.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, msg)
}

type smtpSession struct {
	client *mail.Client
	from   string
}

func (s *smtpSession) Send(ctx context.Context, email OutgoingEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := NewMessage(s.from, email)
	if err != nil {
		return err
	}
	return s.client.Send(msg)
}

func (s *smtpSession) Close() error {
	return s.client.Close()
}

// NewMessage builds a plain-text message.
func NewMessage(from string, email OutgoingEmail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	if err := msg.To(strings.TrimSpace(email.To)); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRecipient, email.To, err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Body)
	return msg, nil
}

var _ Dialer = (*SMTPDialer)(nil)
