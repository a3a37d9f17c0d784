// Package verify classifies lead email addresses before anything is sent to them.
package verify

import (
	"context"
	"net"
	"strings"

	"github.com/unclebandit/outreach-backend/internal/validator"
)

const (
	ReasonEmpty      = ReasonSyntax + " (empty)"
	ReasonSyntax     = "Invalid email syntax"
	ReasonDisposable = "Disposable email address"
	ReasonNoMX       = "No MX records found for domain"
	ReasonValid      = "Valid email address"
)

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"10minutemail.com":  true,
	"throwaway.email":   true,
	"temp-mail.org":     true,
}

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

type Result struct {
	Email  string `json:"email"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// Summary keeps every result in input order next to the valid/invalid split.
type Summary struct {
	Total   int      `json:"total"`
	Valid   []string `json:"valid"`
	Invalid []Result `json:"invalid"`
	Results []Result `json:"-"`
}

type Verifier struct {
	Resolver Resolver
}

func NewVerifier() *Verifier {
	return &Verifier{Resolver: net.DefaultResolver}
}

// IsDisposable reports whether the address belongs to a throwaway mail service.
func IsDisposable(email string) bool {
	i := strings.LastIndex(email, "@")
	return disposableDomains[strings.ToLower(email[i+1:])]
}

// Verify runs syntax, disposable-domain and (optionally) MX checks in that order,
// stopping at the first failure. A failed check is a normal result, not an error.
func (v *Verifier) Verify(ctx context.Context, email string, checkDNS bool) Result {
	res := Result{Email: email}
	normalized := strings.ToLower(strings.TrimSpace(email))

	switch {
	case normalized == "":
		res.Reason = ReasonEmpty
	case !validator.EmailSyntaxOK(normalized):
		res.Reason = ReasonSyntax
	case IsDisposable(normalized):
		res.Reason = ReasonDisposable
	case checkDNS && !v.hasMX(ctx, normalized[strings.LastIndex(normalized, "@")+1:]):
		res.Reason = ReasonNoMX
	default:
		res.Valid = true
		res.Reason = ReasonValid
	}
	return res
}

// VerifyAll verifies every address and splits them into valid and invalid.
func (v *Verifier) VerifyAll(ctx context.Context, emails []string, checkDNS bool) Summary {
	summary := Summary{Total: len(emails), Results: make([]Result, 0, len(emails))}
	for _, e := range emails {
		r := v.Verify(ctx, e, checkDNS)
		summary.Results = append(summary.Results, r)
		if r.Valid {
			summary.Valid = append(summary.Valid, e)
		} else {
			summary.Invalid = append(summary.Invalid, r)
		}
	}
	return summary
}

// SuccessRate is the valid share in percent, 0 for an empty summary.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(len(s.Valid)) / float64(s.Total) * 100
}

func (v *Verifier) hasMX(ctx context.Context, domain string) bool {
	resolver := v.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	records, err := resolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}
