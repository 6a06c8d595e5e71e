package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"

	logx "github.com/lawgraph-core/server/pkg/logger"
)

// Embedder turns a user query into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, query string) ([]float32, error)
}

// HTTPEmbedder calls the embedding service over HTTP. The service takes a
// batch of texts and answers with one vector per text; we only ever send one.
type HTTPEmbedder struct {
	endpoint string
	client   *http.Client
}

func NewHTTPEmbedder(endpoint string) *HTTPEmbedder {
	return &HTTPEmbedder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

var _ Embedder = (*HTTPEmbedder)(nil)

func (e *HTTPEmbedder) Embed(ctx context.Context, query string) ([]float32, error) {
	body, err := json.Marshal(map[string]any{"text": []string{query}})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"?embed_type=query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var out struct {
		Vectors [][]float32 `json:"vectors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Vectors) == 0 || len(out.Vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned no vectors")
	}
	return out.Vectors[0], nil
}

// DocumentMatch is one scored hit from the vector store.
type DocumentMatch struct {
	Text         string
	DocumentName string
	ImageID      string
	Distance     float64
}

// VectorSearcher runs a near-vector query against the document collection.
type VectorSearcher interface {
	NearVector(ctx context.Context, vector []float32, limit int) ([]DocumentMatch, error)
}

// WeaviateSearcher queries a Weaviate collection through GraphQL.
type WeaviateSearcher struct {
	client     *weaviate.Client
	collection string
}

func NewWeaviateSearcher(host, scheme, collection string) (*WeaviateSearcher, error) {
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &WeaviateSearcher{client: client, collection: collection}, nil
}

var _ VectorSearcher = (*WeaviateSearcher)(nil)

func (s *WeaviateSearcher) NearVector(ctx context.Context, vector []float32, limit int) ([]DocumentMatch, error) {
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "doc_name"},
		{Name: "image_id"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	result, err := s.client.GraphQL().Get().
		WithClassName(s.collection).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("near vector query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("near vector query: %s", result.Errors[0].Message)
	}

	get, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected query response shape")
	}
	objects, _ := get[s.collection].([]any)

	matches := make([]DocumentMatch, 0, len(objects))
	for _, raw := range objects {
		props, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m := DocumentMatch{}
		m.Text, _ = props["text"].(string)
		m.DocumentName, _ = props["doc_name"].(string)
		m.ImageID, _ = props["image_id"].(string)
		if add, ok := props["_additional"].(map[string]any); ok {
			m.Distance, _ = add["distance"].(float64)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DocumentSearchResult is the tool payload: parallel arrays over the top
// matches, in score order.
type DocumentSearchResult struct {
	Text         []string `json:"text"`
	DocumentName []string `json:"document_name"`
	ImageID      []string `json:"image_id"`
}

const topK = 5

// Retriever answers document_search calls: embed the query, then rank the
// collection by vector distance.
type Retriever struct {
	embedder Embedder
	searcher VectorSearcher
}

func NewRetriever(embedder Embedder, searcher VectorSearcher) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher}
}

func (r *Retriever) Search(ctx context.Context, query string) (*DocumentSearchResult, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := r.searcher.NearVector(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	result := &DocumentSearchResult{
		Text:         []string{},
		DocumentName: []string{},
		ImageID:      []string{},
	}
	for _, m := range matches {
		result.Text = append(result.Text, m.Text)
		result.DocumentName = append(result.DocumentName, m.DocumentName)
		result.ImageID = append(result.ImageID, m.ImageID)
		logx.Debug().Str("document", m.DocumentName).Float64("distance", m.Distance).Msg("document match")
	}
	return result, nil
}
