package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newFakeCSE(t *testing.T, handler http.HandlerFunc) *WebSearcher {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	searcher, err := NewWebSearcher(context.Background(), "test-key", "test-cx",
		option.WithEndpoint(ts.URL),
	)
	require.NoError(t, err)
	return searcher
}

func TestWebSearcher_Search(t *testing.T) {
	searcher := newFakeCSE(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-cx", r.URL.Query().Get("cx"))
		assert.Equal(t, "recent supreme court rulings", r.URL.Query().Get("q"))

		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]string{
				{"title": "Ruling A", "link": "https://example.com/a", "snippet": "Court held that..."},
				{"title": "Ruling B", "link": "https://example.com/b", "snippet": "In a 5-4 decision..."},
			},
		})
	})

	resp := searcher.Search(context.Background(), "recent supreme court rulings")

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Ruling A", resp.Results[0].Title)
	assert.Equal(t, "https://example.com/a", resp.Results[0].Link)
	assert.Equal(t, "Court held that...", resp.Results[0].Snippet)
}

func TestWebSearcher_ServerErrorYieldsEmptyResults(t *testing.T) {
	searcher := newFakeCSE(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	resp := searcher.Search(context.Background(), "q")

	require.NotNil(t, resp.Results, "a failed search must keep the response shape")
	assert.Empty(t, resp.Results)
}

func TestWebSearcher_UnreachableYieldsEmptyResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close() // nothing is listening anymore

	searcher, err := NewWebSearcher(context.Background(), "test-key", "test-cx",
		option.WithEndpoint(url),
	)
	require.NoError(t, err)

	resp := searcher.Search(context.Background(), "q")
	assert.Empty(t, resp.Results)
}

func TestWebSearcher_NoItemsYieldsEmptyResults(t *testing.T) {
	searcher := newFakeCSE(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"kind": "customsearch#search"})
	})

	resp := searcher.Search(context.Background(), "obscure query with no hits")
	assert.Empty(t, resp.Results)
}
