// Package website pulls a short plain-text summary from a business homepage.
package website

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	DefaultMaxChars = 1000
	UserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxBodyBytes = 2 << 20
)

// ContextFetcher is the website-context collaborator used by draft generation.
type ContextFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

type Fetcher struct {
	HTTP     *http.Client
	MaxChars int
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		MaxChars: DefaultMaxChars,
	}
}

// Fetch downloads rawURL (https:// is assumed when no scheme is given) and returns
// its readable text with whitespace collapsed, cut to MaxChars runes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := Normalize(rawURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", UserAgent)

	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}

	text := extract(data, target)
	max := f.MaxChars
	if max <= 0 {
		max = DefaultMaxChars
	}
	return Truncate(text, max), nil
}

func extract(data []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err == nil {
		if text := Collapse(article.TextContent); text != "" {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer").Remove()
	return Collapse(doc.Text())
}

// Normalize adds an https scheme to bare hosts.
func Normalize(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}
	return u, nil
}

func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var _ ContextFetcher = (*Fetcher)(nil)
