package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEmbedder_Embed(t *testing.T) {
	var gotBody map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "query", r.URL.Query().Get("embed_type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"vectors": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer ts.Close()

	embedder := NewHTTPEmbedder(ts.URL)
	vec, err := embedder.Embed(context.Background(), "land deed transfer")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"land deed transfer"}, gotBody["text"])
}

func TestHTTPEmbedder_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := NewHTTPEmbedder(ts.URL).Embed(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPEmbedder_EmptyVectors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"vectors": [][]float32{}})
	}))
	defer ts.Close()

	_, err := NewHTTPEmbedder(ts.URL).Embed(context.Background(), "q")
	require.Error(t, err)
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

type fakeSearcher struct {
	matches   []DocumentMatch
	err       error
	gotVector []float32
	gotLimit  int
}

func (f *fakeSearcher) NearVector(_ context.Context, vector []float32, limit int) ([]DocumentMatch, error) {
	f.gotVector = vector
	f.gotLimit = limit
	return f.matches, f.err
}

func TestRetriever_Search(t *testing.T) {
	searcher := &fakeSearcher{matches: []DocumentMatch{
		{Text: "Transfer requires registration.", DocumentName: "deed_act", ImageID: "img_1", Distance: 0.12},
		{Text: "Stamp duty applies.", DocumentName: "stamp_act", ImageID: "img_2", Distance: 0.31},
	}}
	r := NewRetriever(&fakeEmbedder{vec: []float32{1, 2}}, searcher)

	result, err := r.Search(context.Background(), "deed transfer")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, searcher.gotVector)
	assert.Equal(t, topK, searcher.gotLimit)
	assert.Equal(t, []string{"Transfer requires registration.", "Stamp duty applies."}, result.Text)
	assert.Equal(t, []string{"deed_act", "stamp_act"}, result.DocumentName)
	assert.Equal(t, []string{"img_1", "img_2"}, result.ImageID)
}

func TestRetriever_EmbedderFailure(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("embedding service down")}, &fakeSearcher{})

	_, err := r.Search(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")
}

func TestRetriever_SearcherFailure(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{err: errors.New("weaviate unreachable")})

	_, err := r.Search(context.Background(), "q")
	require.Error(t, err)
}

func TestRetriever_NoMatchesYieldsEmptyArrays(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{})

	result, err := r.Search(context.Background(), "q")

	require.NoError(t, err)
	assert.NotNil(t, result.Text)
	assert.Empty(t, result.Text)

	// The payload keeps its parallel-array shape even when empty.
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":[],"document_name":[],"image_id":[]}`, string(raw))
}
