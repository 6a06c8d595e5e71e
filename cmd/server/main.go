package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/lawgraph-core/server/internal/agent"
	"github.com/lawgraph-core/server/internal/agent/model"
	"github.com/lawgraph-core/server/internal/agent/repo"
	"github.com/lawgraph-core/server/internal/agent/tools"
	"github.com/lawgraph-core/server/internal/core"
	"github.com/lawgraph-core/server/internal/server"
	logx "github.com/lawgraph-core/server/pkg/logger"
	pkgredis "github.com/lawgraph-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the chat server, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	HTTPAddr    string           `envconfig:"HTTP_ADDR" default:":8000"`

	// Infrastructure
	Redis  pkgredis.Config
	ChatDB string `envconfig:"CHAT_DB_PATH" default:"chats.db"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Chat         model.ChatModelConfig
	Conversation model.ConversationConfig
	MCP          tools.MCPConfig

	// Local development credential seeded into the chat catalog.
	SeedUser   string `envconfig:"SEED_USER"`
	SeedAPIKey string `envconfig:"SEED_API_KEY"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}
	toolTimeout, err := time.ParseDuration(cfg.Conversation.Tools.Timeout)
	if err != nil {
		logx.Fatal().Err(err).Str("timeout", cfg.Conversation.Tools.Timeout).Msg("Invalid CONVERSATION_TOOL_TIMEOUT")
	}

	// The tool registry is loaded once from the gateway and immutable after.
	invoker, specs, err := tools.ConnectMCP(ctx, cfg.MCP)
	if err != nil {
		logx.Fatal().Err(err).Str("server", cfg.MCP.ServerURL).Msg("Failed to connect to tool gateway")
	}
	defer invoker.Close()
	registry := tools.NewRegistry(specs, invoker, toolTimeout)

	legalAgent, err := agent.New(ctx, agent.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		ChatModel:    cfg.Chat,
		Conversation: cfg.Conversation,
		Registry:     registry,
		StateRepo:    repo.NewRedisStateRepository(rdb, ttl),
		Locker:       repo.NewRedisSessionLocker(rdb),
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to assemble agent")
	}

	store, err := server.NewChatStore(cfg.ChatDB)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.ChatDB).Msg("Failed to open chat catalog")
	}
	defer store.Close()

	if cfg.SeedUser != "" && cfg.SeedAPIKey != "" {
		if err := store.Bootstrap(ctx, cfg.SeedUser, cfg.SeedAPIKey); err != nil {
			logx.Fatal().Err(err).Str("user", cfg.SeedUser).Msg("Failed to seed user")
		}
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewRouter(server.NewHandler(store, legalAgent)),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logx.Info().Str("address", cfg.HTTPAddr).Msg("Chat server listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logx.Info().Msg("Shutdown signal received, stopping chat server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("Could not stop server gracefully")
		}
	}
}
