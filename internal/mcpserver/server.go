package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	logx "github.com/lawgraph-core/server/pkg/logger"
)

// Server exposes the retrieval tools over MCP streamable HTTP.
type Server struct {
	retriever *Retriever
	searcher  *WebSearcher
	mcpServer *server.MCPServer
}

func NewServer(retriever *Retriever, searcher *WebSearcher) *Server {
	s := &Server{
		retriever: retriever,
		searcher:  searcher,
		mcpServer: server.NewMCPServer("lawgraph-retrieval", "1.0.0", server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	documentSearch := mcp.NewTool("document_search",
		mcp.WithDescription("Perform near vector search over the indexed legal document collection."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query to search documents for")),
	)
	s.mcpServer.AddTool(documentSearch, s.handleDocumentSearch)

	searchEngine := mcp.NewTool("search_engine",
		mcp.WithDescription("Perform a google search for online references relevant to the user's case."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query to search the web for")),
	)
	s.mcpServer.AddTool(searchEngine, s.handleSearchEngine)
}

// handleDocumentSearch embeds the query and ranks the collection. Failures
// come back as an in-band {"error": ...} value so the caller's agent loop
// keeps running.
func (s *Server) handleDocumentSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.retriever.Search(ctx, query)
	if err != nil {
		logx.Error().Err(err).Str("query", query).Msg("document search failed")
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return mcp.NewToolResultText(string(payload)), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleSearchEngine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := s.searcher.Search(ctx, query)
	payload, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// Serve runs the streamable HTTP transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)

	serverErrors := make(chan error, 1)
	go func() {
		logx.Info().Str("address", addr).Msg("mcp server listening")
		serverErrors <- httpServer.Start(addr)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logx.Info().Msg("shutdown signal received, stopping mcp server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}
