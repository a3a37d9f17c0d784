package enrich_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-backend/internal/enrich"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type MockCrawler struct {
	contacts map[string]enrich.Contacts
	failures map[string]error
	calls    []string
}

func (m *MockCrawler) Crawl(ctx context.Context, website string) (enrich.Contacts, error) {
	m.calls = append(m.calls, website)
	if err := m.failures[website]; err != nil {
		return enrich.Contacts{}, err
	}
	return m.contacts[website], nil
}

func TestEnrichFillsOnlyMissingFields(t *testing.T) {
	crawler := &MockCrawler{
		contacts: map[string]enrich.Contacts{
			"a.com": {Emails: []string{"info@a.com", "sales@a.com"}, Phones: []string{"555-0001"}},
			"c.com": {Emails: []string{"hi@c.com"}},
		},
		failures: map[string]error{"b.com": errors.New("connection refused")},
	}
	e := &enrich.Enricher{Crawler: crawler}

	in := []model.Lead{
		{Name: "A", Website: "a.com", Phone: "111"},
		{Name: "B", Website: "b.com"},
		{Name: "C", Website: "c.com"},
		{Name: "D", Website: "d.com", Email: "keep@d.com"},
		{Name: "E"},
	}
	out, report := e.Enrich(context.Background(), in)

	require.Len(t, out, 5)
	assert.Equal(t, "info@a.com", out[0].Email)
	assert.Equal(t, "111", out[0].Phone)
	assert.Empty(t, out[1].Email)
	assert.Equal(t, "hi@c.com", out[2].Email)
	assert.Equal(t, "keep@d.com", out[3].Email)
	assert.Empty(t, in[0].Email, "input slice must not be modified")

	assert.Equal(t, enrich.Report{Attempted: 3, Enriched: 2, Failed: 1, Skipped: 2}, report)
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, crawler.calls)
}

func TestSiteCrawlerFollowsSameHostLinks(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="/contact">Contact</a>
			<a href="https://elsewhere.example/about">Elsewhere</a>
			<img src="logo@2x.png">
			<p>Call (512) 555-0199</p>
		</body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
			<a href="mailto:Owner@Shop.com?subject=hi">Email us</a>
			<p>or write to owner@shop.com</p>
			<a href="tel:+15125550100">Phone</a>
			<a href="/missing">broken</a>
		</body></html>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	crawler := enrich.NewSiteCrawler()
	contacts, err := crawler.Crawl(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{"owner@shop.com"}, contacts.Emails)
	assert.Contains(t, contacts.Phones, "(512) 555-0199")
	assert.Contains(t, contacts.Phones, "+15125550100")
}

func TestSiteCrawlerDeadStartPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := enrich.NewSiteCrawler().Crawl(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 410")
}

type MockRunner struct {
	input any
	resp  string
}

func (m *MockRunner) RunActor(ctx context.Context, actorID string, input any, out any) error {
	m.input = input
	return json.Unmarshal([]byte(m.resp), out)
}

func TestApifyCrawlerMergesItems(t *testing.T) {
	runner := &MockRunner{resp: `[
		{"url": "https://shop.com", "emails": ["Info@shop.com"], "phones": ["555-1000"]},
		{"url": "https://shop.com/contact", "emails": ["info@shop.com", "team@shop.com"], "phones": []}
	]`}
	crawler := &enrich.ApifyCrawler{Runner: runner}

	contacts, err := crawler.Crawl(context.Background(), "shop.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"info@shop.com", "team@shop.com"}, contacts.Emails)
	assert.Equal(t, []string{"555-1000"}, contacts.Phones)

	input := runner.input.(map[string]any)
	assert.Equal(t, []map[string]string{{"url": "https://shop.com"}}, input["startUrls"])
	assert.Equal(t, 2, input["maxDepth"])
	assert.Equal(t, 5, input["maxPagesPerDomain"])
}
