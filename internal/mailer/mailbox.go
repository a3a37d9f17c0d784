package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// InboundMessage is the newest message found from one sender.
type InboundMessage struct {
	ID   string
	From string
	Body string
}

// Mailbox is the inbound-mail collaborator used by reply tracking.
type Mailbox interface {
	LatestFrom(ctx context.Context, address string) (*InboundMessage, error)
}

const maxListed = 5

type GmailMailbox struct {
	srv  *gmail.Service
	user string
}

func NewGmailMailbox(ctx context.Context, credentialsFile, user string) (*GmailMailbox, error) {
	return newGmailMailbox(ctx, user,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gmail.GmailReadonlyScope),
	)
}

func newGmailMailbox(ctx context.Context, user string, opts ...option.ClientOption) (*GmailMailbox, error) {
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	if user == "" {
		user = "me"
	}
	return &GmailMailbox{srv: srv, user: user}, nil
}

// LatestFrom returns the newest message from address, or nil when there is none.
// Older messages from the same sender are ignored.
func (g *GmailMailbox) LatestFrom(ctx context.Context, address string) (*InboundMessage, error) {
	list, err := g.srv.Users.Messages.List(g.user).
		Q("from:" + address).
		MaxResults(maxListed).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages from %s: %w", address, err)
	}
	if len(list.Messages) == 0 {
		return nil, nil
	}

	id := list.Messages[0].Id
	msg, err := g.srv.Users.Messages.Get(g.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	body := ExtractBody(msg.Payload)
	if body == "" {
		body = msg.Snippet
	}
	return &InboundMessage{ID: id, From: address, Body: body}, nil
}

// ExtractBody decodes the text/plain part of payload, falling back to the first part carrying data.
func ExtractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if part := findPart(payload, func(p *gmail.MessagePart) bool {
		return strings.HasPrefix(p.MimeType, "text/plain")
	}); part != nil {
		return decode(part.Body.Data)
	}
	if part := findPart(payload, func(*gmail.MessagePart) bool { return true }); part != nil {
		return decode(part.Body.Data)
	}
	return ""
}

func findPart(p *gmail.MessagePart, match func(*gmail.MessagePart) bool) *gmail.MessagePart {
	if p.Body != nil && p.Body.Data != "" && match(p) {
		return p
	}
	for _, child := range p.Parts {
		if found := findPart(child, match); found != nil {
			return found
		}
	}
	return nil
}

func decode(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

var _ Mailbox = (*GmailMailbox)(nil)
