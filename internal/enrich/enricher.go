// Package enrich fills missing lead emails and phones from the lead's website.
package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
)

const DefaultMaxPerSite = 5

// Contacts are the candidates found on one website, in discovery order.
type Contacts struct {
	Emails []string
	Phones []string
}

// Crawler is the website-crawling service contract.
type Crawler interface {
	Crawl(ctx context.Context, website string) (Contacts, error)
}

type Report struct {
	Attempted int `json:"attempted"`
	Enriched  int `json:"enriched"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type Enricher struct {
	Crawler    Crawler
	MaxPerSite int
	Logger     *zap.Logger
}

// NeedsEnrichment reports whether a lead has a website to crawl and no email yet.
func NeedsEnrichment(l model.Lead) bool {
	return strings.TrimSpace(l.Website) != "" && strings.TrimSpace(l.Email) == ""
}

// Enrich returns a copy of leads with empty email/phone fields filled from crawled candidates.
// Existing values are never overwritten and a failing site only affects its own lead.
func (e *Enricher) Enrich(ctx context.Context, leads []model.Lead) ([]model.Lead, Report) {
	log := logger.OrNop(e.Logger)
	out := make([]model.Lead, len(leads))
	copy(out, leads)

	var report Report
	for i := range out {
		lead := &out[i]
		if !NeedsEnrichment(*lead) {
			report.Skipped++
			continue
		}
		report.Attempted++

		found, err := e.EnrichOne(ctx, lead)
		if err != nil {
			log.Warn("crawl failed", zap.String("business", lead.Name), zap.String("website", lead.Website), zap.Error(err))
			report.Failed++
			continue
		}
		if found {
			report.Enriched++
		}
	}
	return out, report
}

// EnrichOne crawls a single lead's website and fills its empty fields in place.
func (e *Enricher) EnrichOne(ctx context.Context, lead *model.Lead) (bool, error) {
	contacts, err := e.Crawler.Crawl(ctx, lead.Website)
	if err != nil {
		return false, err
	}

	max := e.MaxPerSite
	if max <= 0 {
		max = DefaultMaxPerSite
	}
	emails := capList(contacts.Emails, max)
	phones := capList(contacts.Phones, max)

	filled := false
	if lead.Email == "" && len(emails) > 0 {
		lead.Email = emails[0]
		filled = true
	}
	if lead.Phone == "" && len(phones) > 0 {
		lead.Phone = phones[0]
		filled = true
	}
	return filled, nil
}

func capList(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}
