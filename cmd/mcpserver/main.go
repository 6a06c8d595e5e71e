package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/lawgraph-core/server/internal/core"
	"github.com/lawgraph-core/server/internal/mcpserver"
	logx "github.com/lawgraph-core/server/pkg/logger"
)

// GatewayConfig defines all configurable parameters for the retrieval tool
// gateway, sourced from environment variables (loaded from .mcp.env for
// local runs).
type GatewayConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	Addr        string           `envconfig:"MCP_ADDR" default:":5050"`

	// Vector search
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	Collection     string `envconfig:"WEAVIATE_COLLECTION" default:"Vectorbase"`
	EmbeddingURL   string `envconfig:"EMBEDDING_SERVER" required:"true"`

	// Web search
	GoogleSearchKey string `envconfig:"GOOGLE_SEARCH_KEY" required:"true"`
	GoogleSearchCX  string `envconfig:"CX" required:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".mcp.env"); err != nil {
		log.Printf("Warning: Could not load .mcp.env file: %v", err)
	}

	var cfg GatewayConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})

	searcher, err := mcpserver.NewWeaviateSearcher(cfg.WeaviateHost, cfg.WeaviateScheme, cfg.Collection)
	if err != nil {
		logx.Fatal().Err(err).Str("host", cfg.WeaviateHost).Msg("Failed to create weaviate client")
	}
	retriever := mcpserver.NewRetriever(mcpserver.NewHTTPEmbedder(cfg.EmbeddingURL), searcher)

	webSearcher, err := mcpserver.NewWebSearcher(ctx, cfg.GoogleSearchKey, cfg.GoogleSearchCX)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create search client")
	}

	srv := mcpserver.NewServer(retriever, webSearcher)
	if err := srv.Serve(ctx, cfg.Addr); err != nil {
		logx.Fatal().Err(err).Msg("MCP server failed")
	}
}
