package generator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-backend/internal/generator"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/retry"
)

type MockLLM struct {
	responses []string
	errs      []error
	prompts   []string
}

func (m *MockLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", errors.New("no canned response")
}

var fastRetry = retry.Policy{Attempts: 3, Base: time.Millisecond, Max: 5 * time.Millisecond}

func newGenerator(llm *MockLLM) *generator.Generator {
	g := generator.New(llm, nil)
	g.Retry = fastRetry
	return g
}

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		subject string
		body    string
	}{
		{
			name:    "markers",
			text:    "SUBJECT: Hi\n\nBODY:\nHello world",
			subject: "Hi",
			body:    "Hello world",
		},
		{
			name:    "multi-line body",
			text:    "SUBJECT: Test Subject\n\nBODY:\nThis is the email body.\nIt has multiple lines.\n",
			subject: "Test Subject",
			body:    "This is the email body.\nIt has multiple lines.",
		},
		{
			name:    "inline body marker",
			text:    "SUBJECT: Inline  BODY: Hello there",
			subject: "Inline",
			body:    "Hello there",
		},
		{
			name:    "no markers",
			text:    "Quick question about your business\n\nHi there, this is the body",
			subject: "Quick question about your business",
			body:    "Hi there, this is the body",
		},
		{
			name:    "single line",
			text:    "Just one line",
			subject: "Just one line",
			body:    "Just one line",
		},
		{
			name:    "empty",
			text:    "",
			subject: generator.DefaultGeneralSubject,
			body:    "Email generation failed",
		},
		{
			name:    "empty body after marker",
			text:    "SUBJECT: Lonely\nBODY:",
			subject: generator.DefaultGeneralSubject,
			body:    "SUBJECT: Lonely\nBODY:",
		},
		{
			name:    "empty subject",
			text:    "SUBJECT:\nBODY:\nBody only",
			subject: generator.DefaultGeneralSubject,
			body:    "Body only",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subject, body := generator.ParseResponse(tc.text, generator.DefaultGeneralSubject)
			assert.Equal(t, tc.subject, subject)
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestParseResponseTruncatesRawFallback(t *testing.T) {
	raw := strings.Repeat("z", 600) + "\nBODY:"
	subject, body := generator.ParseResponse(raw, generator.DefaultSpecificSubject)
	assert.Equal(t, generator.DefaultSpecificSubject, subject)
	assert.Equal(t, strings.Repeat("z", 500), body)
}

func TestGenerateGeneralEmail(t *testing.T) {
	llm := &MockLLM{responses: []string{"SUBJECT: Quick question about Smile Dental\n\nBODY:\nHi Smile Dental team,\n\nWhat slows you down?\n\nBest regards"}}
	g := newGenerator(llm)

	email := g.Generate(context.Background(), generator.Request{
		Strategy:       model.OutreachGeneralHelp,
		BusinessName:   "Smile Dental",
		BusinessType:   "Dentist",
		WebsiteContext: "Family dentistry for 20 years",
	})

	want := generator.Email{
		Subject: "Quick question about Smile Dental",
		Body:    "Hi Smile Dental team,\n\nWhat slows you down?\n\nBest regards",
	}
	if diff := cmp.Diff(want, email); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, `a Dentist business called "Smile Dental"`)
	assert.Contains(t, prompt, "Website info:\nFamily dentistry for 20 years")
	assert.Contains(t, prompt, "General Help (Discovery Approach)")
	assert.NotContains(t, prompt, "{")
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	llm := &MockLLM{
		errs:      []error{errors.New("429 rate limited"), errors.New("timeout")},
		responses: []string{"", "", "SUBJECT: Third time\nBODY:\nLucky"},
	}
	email := newGenerator(llm).Generate(context.Background(), generator.Request{
		Strategy:     model.OutreachGeneralHelp,
		BusinessName: "Cafe",
		BusinessType: "Coffee Shop",
	})

	assert.Len(t, llm.prompts, 3)
	assert.Equal(t, "Third time", email.Subject)
	assert.False(t, email.Fallback)
}

func TestGenerateFallsBackAfterThreeFailures(t *testing.T) {
	boom := errors.New("unavailable")
	llm := &MockLLM{errs: []error{boom, boom, boom, boom}}

	general := newGenerator(llm).Generate(context.Background(), generator.Request{
		Strategy:     model.OutreachGeneralHelp,
		BusinessName: "Smile Dental",
		BusinessType: "Dentist",
	})
	assert.Len(t, llm.prompts, 3)
	assert.True(t, general.Fallback)
	assert.Equal(t, "Quick question about Smile Dental", general.Subject)
	assert.Equal(t, "Hi Smile Dental team,\n\nI help Dentists streamline their operations. Would you be open to a brief chat about any challenges you're facing?\n\nBest regards", general.Body)

	llm = &MockLLM{errs: []error{boom, boom, boom}}
	specific := newGenerator(llm).Generate(context.Background(), generator.Request{
		Strategy:     model.OutreachSpecificAutomation,
		BusinessName: "Smile Dental",
		BusinessType: "Dentist",
	})
	assert.Equal(t, "Boost Smile Dental's Efficiency", specific.Subject)
	assert.Contains(t, specific.Body, "We help Dentists with Appointment Reminder System.")
}

func TestSpecificPromptUsesAutomationCatalog(t *testing.T) {
	g := newGenerator(&MockLLM{})

	prompt := g.Prompt(generator.Request{
		Strategy:        model.OutreachSpecificAutomation,
		BusinessName:    "Glow Salon",
		BusinessType:    "Salon",
		AutomationFocus: "Review Request Automation",
		WebsiteContext:  strings.Repeat("x", 800),
	})
	assert.Contains(t, prompt, "AUTOMATION FOCUS: Review Request Automation")
	assert.Contains(t, prompt, "PAIN POINT: Salons struggle to get consistent 5-star reviews")
	assert.Contains(t, prompt, `PROOF: "Salon went from 12 reviews to 80+ in 6 months"`)
	assert.Contains(t, prompt, "Website info:\n"+strings.Repeat("x", 500)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("x", 501))

	custom := g.Prompt(generator.Request{
		Strategy:        model.OutreachSpecificAutomation,
		BusinessName:    "Glow Salon",
		BusinessType:    "Salon",
		AutomationFocus: "Waitlist texting",
	})
	assert.Contains(t, custom, "Focus on Waitlist texting benefits for Salons")
}

func TestAutomationCatalog(t *testing.T) {
	want := []string{
		"Appointment Reminder System",
		"Review Request Automation",
		"Lead Follow-up System",
		"Customer Feedback Collection",
		"Inventory Alerts",
	}
	assert.Equal(t, want, generator.AutomationNames())
	for _, a := range generator.Automations() {
		assert.NotEmpty(t, a.Pain, a.Name)
		assert.NotEmpty(t, a.Proof, a.Name)
	}
}

func TestRenderTemplate(t *testing.T) {
	out := generator.RenderTemplate("Hi {name}, {name} {missing}", map[string]string{"name": "Ana"})
	assert.Equal(t, "Hi Ana, Ana {missing}", out)
}
