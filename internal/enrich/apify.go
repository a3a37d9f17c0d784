package enrich

import (
	"context"
	"strings"
)

const ContactScraperActor = "vdrmota/contact-info-scraper"

type ActorRunner interface {
	RunActor(ctx context.Context, actorID string, input any, out any) error
}

// ApifyCrawler delegates crawling to the hosted contact-info scraper.
type ApifyCrawler struct {
	Runner   ActorRunner
	MaxDepth int
	MaxPages int
}

type contactItem struct {
	URL    string   `json:"url"`
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

func (a *ApifyCrawler) Crawl(ctx context.Context, website string) (Contacts, error) {
	start, err := normalizeURL(website)
	if err != nil {
		return Contacts{}, err
	}

	depth, pages := a.MaxDepth, a.MaxPages
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	if pages <= 0 {
		pages = DefaultMaxPages
	}
	input := map[string]any{
		"startUrls":           []map[string]string{{"url": start.String()}},
		"maxDepth":            depth,
		"maxPagesPerDomain":   pages,
		"includePersonalData": true,
	}

	var items []contactItem
	if err := a.Runner.RunActor(ctx, ContactScraperActor, input, &items); err != nil {
		return Contacts{}, err
	}

	var contacts Contacts
	seen := map[string]bool{}
	for _, item := range items {
		for _, e := range item.Emails {
			e = strings.ToLower(strings.TrimSpace(e))
			if e != "" && !seen["e:"+e] {
				seen["e:"+e] = true
				contacts.Emails = append(contacts.Emails, e)
			}
		}
		for _, p := range item.Phones {
			p = strings.TrimSpace(p)
			if p != "" && !seen["p:"+p] {
				seen["p:"+p] = true
				contacts.Phones = append(contacts.Phones, p)
			}
		}
	}
	return contacts, nil
}

var _ Crawler = (*ApifyCrawler)(nil)
