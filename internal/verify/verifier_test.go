package verify_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-backend/internal/verify"
)

type MockResolver struct {
	records map[string][]*net.MX
	lookups []string
}

func (m *MockResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	m.lookups = append(m.lookups, name)
	if mx, ok := m.records[name]; ok {
		return mx, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func newVerifier() (*verify.Verifier, *MockResolver) {
	r := &MockResolver{records: map[string][]*net.MX{
		"realshop.com": {{Host: "mx.realshop.com.", Pref: 10}},
	}}
	return &verify.Verifier{Resolver: r}, r
}

func TestVerifyChecksInOrder(t *testing.T) {
	v, _ := newVerifier()
	ctx := context.Background()

	cases := []struct {
		email    string
		checkDNS bool
		valid    bool
		reason   string
	}{
		{"", false, false, verify.ReasonEmpty},
		{"   ", true, false, verify.ReasonEmpty},
		{"no-at-sign.com", false, false, verify.ReasonSyntax},
		{"user@nodot", true, false, verify.ReasonSyntax},
		{"bad@@tempmail.com", false, false, verify.ReasonSyntax},
		{"user@tempmail.com", false, false, verify.ReasonDisposable},
		{"User@Mailinator.COM", true, false, verify.ReasonDisposable},
		{"owner@realshop.com", false, true, verify.ReasonValid},
		{" Owner@RealShop.com ", true, true, verify.ReasonValid},
		{"owner@ghost-domain.com", false, true, verify.ReasonValid},
		{"owner@ghost-domain.com", true, false, verify.ReasonNoMX},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			got := v.Verify(ctx, tc.email, tc.checkDNS)
			assert.Equal(t, tc.valid, got.Valid)
			assert.Equal(t, tc.reason, got.Reason)
			assert.Equal(t, tc.email, got.Email)
		})
	}
}

func TestVerifyReportsSyntaxWithoutAtSign(t *testing.T) {
	v, r := newVerifier()
	for _, email := range []string{"", "  ", "plainaddress", "no-at.tempmail.com"} {
		for _, checkDNS := range []bool{false, true} {
			got := v.Verify(context.Background(), email, checkDNS)
			assert.False(t, got.Valid, email)
			assert.True(t, strings.HasPrefix(got.Reason, verify.ReasonSyntax), "%q: %s", email, got.Reason)
		}
	}
	assert.Empty(t, r.lookups)
}

func TestVerifySkipsDNSWhenNotRequested(t *testing.T) {
	v, r := newVerifier()
	v.Verify(context.Background(), "owner@realshop.com", false)
	assert.Empty(t, r.lookups)

	v.Verify(context.Background(), "owner@realshop.com", true)
	assert.Equal(t, []string{"realshop.com"}, r.lookups)
}

type failingResolver struct{}

func (failingResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return nil, errors.New("i/o timeout")
}

func TestVerifyTreatsLookupErrorsAsNoMX(t *testing.T) {
	v := &verify.Verifier{Resolver: failingResolver{}}
	got := v.Verify(context.Background(), "owner@realshop.com", true)
	assert.False(t, got.Valid)
	assert.Equal(t, verify.ReasonNoMX, got.Reason)
}

func TestVerifyAllSummary(t *testing.T) {
	v, _ := newVerifier()
	summary := v.VerifyAll(context.Background(), []string{"a@realshop.com", "x@tempmail.com", "nope", "b@realshop.com"}, false)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, []string{"a@realshop.com", "b@realshop.com"}, summary.Valid)
	require.Len(t, summary.Invalid, 2)
	assert.Equal(t, verify.ReasonDisposable, summary.Invalid[0].Reason)
	assert.Equal(t, verify.ReasonSyntax, summary.Invalid[1].Reason)
	require.Len(t, summary.Results, 4)
	assert.Equal(t, "nope", summary.Results[2].Email)
	assert.InDelta(t, 50.0, summary.SuccessRate(), 0.001)
	assert.Zero(t, verify.Summary{}.SuccessRate())
}
