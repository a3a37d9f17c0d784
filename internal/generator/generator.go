// Package generator writes personalized outreach emails with a language model.
package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/retry"
)

const DefaultContextBudget = 500

// TextGenerator is the language-model collaborator.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Request struct {
	Strategy        model.OutreachType
	BusinessName    string
	BusinessType    string
	WebsiteContext  string
	AutomationFocus string
}

type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// Fallback is set when the model could not be reached and canned text was used.
	Fallback bool `json:"fallback"`
}

type Generator struct {
	LLM           TextGenerator
	Retry         retry.Policy
	ContextBudget int
	Logger        *zap.Logger
}

func New(llm TextGenerator, log *zap.Logger) *Generator {
	return &Generator{
		LLM:           llm,
		Retry:         retry.DefaultPolicy,
		ContextBudget: DefaultContextBudget,
		Logger:        log,
	}
}

// Generate never fails: when every attempt errors it returns the strategy's canned email.
func (g *Generator) Generate(ctx context.Context, req Request) Email {
	log := logger.OrNop(g.Logger)
	req = g.normalize(req)
	prompt := g.Prompt(req)

	var text string
	err := retry.Do(ctx, g.Retry, func(ctx context.Context) error {
		var err error
		text, err = g.LLM.GenerateText(ctx, prompt)
		return err
	}, func(attempt int, err error) {
		log.Warn("language model call failed, retrying",
			zap.String("business", req.BusinessName),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	})
	if err != nil {
		log.Error("email generation failed, using fallback", zap.String("business", req.BusinessName), zap.Error(err))
		return FallbackEmail(req)
	}

	subject, body := ParseResponse(text, defaultSubject(req.Strategy))
	return Email{Subject: subject, Body: body}
}

// Prompt renders the strategy's prompt for req.
func (g *Generator) Prompt(req Request) string {
	req = g.normalize(req)

	budget := g.ContextBudget
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	websiteContext := ""
	if req.WebsiteContext != "" {
		websiteContext = "\n\nWebsite info:\n" + truncateRunes(req.WebsiteContext, budget)
	}

	data := map[string]string{
		"business_name":   req.BusinessName,
		"business_type":   req.BusinessType,
		"website_context": websiteContext,
	}
	if req.Strategy != model.OutreachSpecificAutomation {
		return RenderTemplate(generalPrompt, data)
	}

	data["automation_focus"] = req.AutomationFocus
	data["automation_details"] = AutomationDetails(req.AutomationFocus, req.BusinessType)
	return RenderTemplate(specificPrompt, data)
}

func (g *Generator) normalize(req Request) Request {
	if req.Strategy == model.OutreachSpecificAutomation && strings.TrimSpace(req.AutomationFocus) == "" {
		req.AutomationFocus = DefaultAutomation
	}
	return req
}

// FallbackEmail is the canned email for req's strategy.
func FallbackEmail(req Request) Email {
	if req.Strategy == model.OutreachSpecificAutomation {
		focus := req.AutomationFocus
		if strings.TrimSpace(focus) == "" {
			focus = DefaultAutomation
		}
		return Email{
			Subject: fmt.Sprintf("Boost %s's Efficiency", req.BusinessName),
			Body: fmt.Sprintf("Hi %s team,\n\nWe help %ss with %s. Would you like to learn how we can help improve your operations?\n\nBest regards",
				req.BusinessName, req.BusinessType, focus),
			Fallback: true,
		}
	}
	return Email{
		Subject: fmt.Sprintf("Quick question about %s", req.BusinessName),
		Body: fmt.Sprintf("Hi %s team,\n\nI help %ss streamline their operations. Would you be open to a brief chat about any challenges you're facing?\n\nBest regards",
			req.BusinessName, req.BusinessType),
		Fallback: true,
	}
}

func defaultSubject(strategy model.OutreachType) string {
	if strategy == model.OutreachSpecificAutomation {
		return DefaultSpecificSubject
	}
	return DefaultGeneralSubject
}
