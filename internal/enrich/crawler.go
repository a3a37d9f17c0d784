package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/unclebandit/outreach-backend/internal/validator"
)

const (
	DefaultMaxDepth = 2
	DefaultMaxPages = 5
	UserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?1?[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}`)

	assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}
)

// SiteCrawler walks pages of one host breadth-first and collects emails and phones.
type SiteCrawler struct {
	HTTP     *http.Client
	MaxDepth int
	MaxPages int
}

func NewSiteCrawler() *SiteCrawler {
	return &SiteCrawler{
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		MaxDepth: DefaultMaxDepth,
		MaxPages: DefaultMaxPages,
	}
}

type page struct {
	url   *url.URL
	depth int
}

func (c *SiteCrawler) Crawl(ctx context.Context, website string) (Contacts, error) {
	start, err := normalizeURL(website)
	if err != nil {
		return Contacts{}, err
	}

	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var contacts Contacts
	seenEmail := map[string]bool{}
	seenPhone := map[string]bool{}
	visited := map[string]bool{start.String(): true}
	queue := []page{{url: start, depth: 0}}
	fetched := 0

	for len(queue) > 0 && fetched < maxPages {
		p := queue[0]
		queue = queue[1:]

		doc, err := c.fetch(ctx, p.url)
		fetched++
		if err != nil {
			// Only a dead start page fails the crawl.
			if p.depth == 0 {
				return contacts, err
			}
			continue
		}

		for _, e := range extractEmails(doc) {
			if !seenEmail[e] {
				seenEmail[e] = true
				contacts.Emails = append(contacts.Emails, e)
			}
		}
		for _, ph := range extractPhones(doc) {
			if !seenPhone[ph] {
				seenPhone[ph] = true
				contacts.Phones = append(contacts.Phones, ph)
			}
		}

		if p.depth >= c.MaxDepth {
			continue
		}
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			next, err := p.url.Parse(strings.TrimSpace(href))
			if err != nil || next.Host != start.Host || (next.Scheme != "http" && next.Scheme != "https") {
				return
			}
			next.Fragment = ""
			if key := next.String(); !visited[key] {
				visited[key] = true
				queue = append(queue, page{url: next, depth: p.depth + 1})
			}
		})
	}

	return contacts, nil
}

func (c *SiteCrawler) fetch(ctx context.Context, u *url.URL) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("GET %s: not an html page (%s)", u, ct)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func extractEmails(doc *goquery.Document) []string {
	var found []string
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.Index(addr, "?"); i >= 0 {
			addr = addr[:i]
		}
		found = append(found, addr)
	})
	found = append(found, emailRe.FindAllString(doc.Text(), -1)...)

	var out []string
	for _, e := range found {
		e = strings.ToLower(strings.TrimSpace(e))
		if validator.EmailSyntaxOK(e) && !isAsset(e) {
			out = append(out, e)
		}
	}
	return out
}

func extractPhones(doc *goquery.Document) []string {
	var out []string
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if tel := strings.TrimSpace(strings.TrimPrefix(href, "tel:")); tel != "" {
			out = append(out, tel)
		}
	})
	for _, m := range phoneRe.FindAllString(doc.Text(), -1) {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

func isAsset(email string) bool {
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(email, suffix) {
			return true
		}
	}
	return false
}

func normalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty website")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid website %q", raw)
	}
	return u, nil
}

var _ Crawler = (*SiteCrawler)(nil)
