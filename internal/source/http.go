package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPConnector fetches per-entity payloads from a JSON feed endpoint.
// The endpoint is expected to answer GET <base>?ids=a,b,c with a JSON
// object mapping entity id to payload.
type HTTPConnector struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPConnector(name, baseURL, apiKey string) *HTTPConnector {
	return &HTTPConnector{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPConnector) Name() string { return c.name }

func (c *HTTPConnector) Fetch(ctx context.Context, entityIDs []string) (map[string]json.RawMessage, error) {
	if len(entityIDs) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("ids", strings.Join(entityIDs, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 1024
		if len(body) > max {
			body = body[:max]
		}
		return nil, fmt.Errorf("source %s: unexpected status %s: %s", c.name, resp.Status, string(body))
	}

	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("source %s: decode: %w", c.name, err)
	}
	return out, nil
}
