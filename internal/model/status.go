// internal/model/status.go
package model

import "strings"

// Status is the workflow stage stored in the sheet's status column.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApproved  Status = "Approved"
	StatusSent      Status = "Sent"
	StatusReplied   Status = "Replied"
	StatusBounced   Status = "Bounced"
	StatusAutoReply Status = "Auto-Reply"
)

// AllStatuses lists every known status in workflow order.
var AllStatuses = []Status{
	StatusDraft,
	StatusApproved,
	StatusSent,
	StatusReplied,
	StatusBounced,
	StatusAutoReply,
}

// Bounced and Auto-Reply are legal targets but nothing in this module sets them.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusApproved},
	StatusApproved: {StatusSent},
	StatusSent:     {StatusReplied, StatusBounced, StatusAutoReply},
}

// ParseStatus matches case-insensitively. Unknown or empty cells return ok=false.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range AllStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// CanTransition reports whether the workflow allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
