package mcpserver

import (
	"context"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	logx "github.com/lawgraph-core/server/pkg/logger"
)

// SearchResult is one web hit.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchResponse is the search_engine tool payload. Results is always
// non-nil; an empty slice means the search yielded nothing or failed.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

const searchTimeout = 10 * time.Second

// WebSearcher runs Google Custom Search queries. Failures never surface as
// errors: a broken search must not break the agent loop, so every failure
// path collapses to an empty result set.
type WebSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewWebSearcher builds the search client. Extra options are accepted so
// tests can point the service at a fake endpoint.
func NewWebSearcher(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*WebSearcher, error) {
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &WebSearcher{svc: svc, cx: cx}, nil
}

func (s *WebSearcher) Search(ctx context.Context, query string) SearchResponse {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	resp, err := s.svc.Cse.List().Cx(s.cx).Q(query).Context(ctx).Do()
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("web search failed, returning empty results")
		return SearchResponse{Results: []SearchResult{}}
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return SearchResponse{Results: results}
}
