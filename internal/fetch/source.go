package fetch

import (
	"context"
	"fmt"
	"net/url"
)

// PageSource resolves a search query to candidate page URLs. Implementations
// may use a SERP API, scraping or a fixed template.
type PageSource interface {
	FindPages(ctx context.Context, query string, limit int) ([]string, error)
}

// QueryURLSource is the default source: it builds one result-page URL per
// query from a printf-style template (%s receives the escaped query).
type QueryURLSource struct {
	template string
}

func NewQueryURLSource(template string) *QueryURLSource {
	return &QueryURLSource{template: template}
}

func (s *QueryURLSource) FindPages(_ context.Context, query string, limit int) ([]string, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	urls := []string{fmt.Sprintf(s.template, url.QueryEscape(query))}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}
