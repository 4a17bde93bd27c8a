// Package fetch defines the content-retrieval capability consumed by the
// search orchestrator.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Result is retrieved page content plus transport metadata.
type Result struct {
	URL      string
	Text     string
	Metadata map[string]string
}

// ContentFetcher retrieves page content for a URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (*Result, error)
}

// HTTPFetcher is the default fetcher, a plain HTTP client with a per-call
// timeout and a response size cap.
type HTTPFetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewHTTPFetcher creates a fetcher with the given per-call timeout and
// maximum body size.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "contact-discovery/1.0").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &HTTPFetcher{client: c, maxBytes: maxBytes}
}

func (f *HTTPFetcher) FetchContent(ctx context.Context, url string) (*Result, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	body := resp.Body()
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		body = body[:f.maxBytes]
	}

	return &Result{
		URL:  url,
		Text: string(body),
		Metadata: map[string]string{
			"contentType": resp.Header().Get("Content-Type"),
			"fetchedAt":   time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
