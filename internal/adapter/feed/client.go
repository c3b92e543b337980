// Package feed fetches GeoJSON feed documents over HTTP, with optional
// caching of the raw response bodies.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "quake-map-service/1.0 (+https://github.com/couchcryptid/quake-map-service)"

// maxDocumentSize bounds a single feed body. The USGS all_month feed is
// roughly 10 MB.
const maxDocumentSize = 64 << 20

// Fetcher retrieves the raw body of a feed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is an HTTP Fetcher.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a feed client whose requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch GETs url and returns the response body. Non-200 responses are errors
// carrying the status code and a short body excerpt.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("read %s: document exceeds %d bytes", url, maxDocumentSize)
	}
	return body, nil
}
