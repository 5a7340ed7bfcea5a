// Package provinces reads the list of administrative divisions published by
// the public provinces API.
package provinces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// ErrSourceUnavailable is returned when the remote list cannot be read at
// all: transport failure, a non-2xx status, or a body that is not a JSON
// array.
var ErrSourceUnavailable = errors.New("province source unavailable")

// maxBodyBytes caps how much of the response is read.
const maxBodyBytes = 16 << 20

// Source yields the raw records of one fetch.
type Source interface {
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

// Client fetches the remote list over HTTP.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient builds a client for url. Requests are traced as external
// segments when a New Relic transaction is on the request context.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
		url: url,
	}
}

// Fetch issues a single GET and splits the array into its elements without
// decoding them.
func (c *Client) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d, body=%s", ErrSourceUnavailable, resp.StatusCode, string(snippet))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", ErrSourceUnavailable, err)
	}
	// The array must be the whole body.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: malformed body: trailing data after array", ErrSourceUnavailable)
	}
	// A literal null decodes without error but is not a list.
	if items == nil {
		return nil, fmt.Errorf("%w: malformed body: not an array", ErrSourceUnavailable)
	}

	return items, nil
}
