// Package apify runs Apify actors synchronously and decodes their dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.apify.com/v2"

type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

// NewClient uses a long timeout because synchronous actor runs can take minutes.
func NewClient(token string) *Client {
	return &Client{
		Token:   token,
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 6 * time.Minute},
	}
}

// RunActor starts actorID ("owner/name") with input and decodes the resulting items into out.
func (c *Client) RunActor(ctx context.Context, actorID string, input any, out any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode actor input: %w", err)
	}

	// The token goes in a header; transport errors quote the full request URL.
	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items",
		strings.TrimRight(c.BaseURL, "/"),
		url.PathEscape(strings.ReplaceAll(actorID, "/", "~")),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("run actor %s: %w", actorID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("run actor %s: status %d: %s", actorID, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode items of %s: %w", actorID, err)
	}
	return nil
}
