package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestHandleDocumentSearch(t *testing.T) {
	retriever := NewRetriever(
		&fakeEmbedder{vec: []float32{1}},
		&fakeSearcher{matches: []DocumentMatch{
			{Text: "clause text", DocumentName: "act", ImageID: "img"},
		}},
	)
	srv := NewServer(retriever, nil)

	res, err := srv.handleDocumentSearch(context.Background(), callRequest("document_search", map[string]any{"query": "q"}))

	require.NoError(t, err)
	assert.False(t, res.IsError)

	var payload DocumentSearchResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &payload))
	assert.Equal(t, []string{"clause text"}, payload.Text)
	assert.Equal(t, []string{"act"}, payload.DocumentName)
}

func TestHandleDocumentSearch_FailureStaysInBand(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{err: errors.New("embedding down")}, &fakeSearcher{})
	srv := NewServer(retriever, nil)

	res, err := srv.handleDocumentSearch(context.Background(), callRequest("document_search", map[string]any{"query": "q"}))

	// The failure travels as a result value so the agent loop survives it.
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &payload))
	assert.Contains(t, payload["error"], "embedding down")
}

func TestHandleDocumentSearch_MissingQuery(t *testing.T) {
	srv := NewServer(NewRetriever(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}), nil)

	res, err := srv.handleDocumentSearch(context.Background(), callRequest("document_search", map[string]any{}))

	require.NoError(t, err)
	assert.True(t, res.IsError)
}
