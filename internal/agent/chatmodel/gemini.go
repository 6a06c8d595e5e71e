package chatmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/lawgraph-core/server/internal/agent/model"
	logx "github.com/lawgraph-core/server/pkg/logger"
	"google.golang.org/genai"
)

// GeminiConfig holds everything needed to create the Gemini chat model with
// its tools bound.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   model.ChatModelConfig
	Tools   []model.ToolSpec
}

// Gemini invokes the Gemini API as an opaque synchronous call. Tool
// declarations are bound once at construction.
type Gemini struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int
	maxRetries  int
	tools       []*genai.Tool
}

// NewGemini creates the Gemini chat model client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	g := &Gemini{
		client:      client,
		modelName:   cfg.Model.Model,
		temperature: cfg.Model.Temperature,
		maxTokens:   cfg.Model.MaxTokens,
		maxRetries:  cfg.Model.MaxRetries,
	}

	if len(cfg.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(cfg.Tools))
		for _, spec := range cfg.Tools {
			decls = append(decls, functionDeclaration(spec))
		}
		g.tools = []*genai.Tool{{FunctionDeclarations: decls}}
		logx.Debug().Int("tool_count", len(decls)).Msg("Successfully bound tools to chat model")
	}

	return g, nil
}

// Generate invokes the model once with the given ordered message list. System
// messages are folded into the system instruction; transient failures are
// retried up to the configured count.
func (g *Gemini) Generate(ctx context.Context, messages []model.Message) (*Reply, error) {
	contents, system := toContents(messages)

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(g.maxTokens),
		Tools:           g.tools,
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	var resp *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			logx.Warn().Int("attempt", attempt).Err(err).Msg("Retrying model invocation")
		}

		resp, err = g.client.Models.GenerateContent(ctx, g.modelName, contents, genCfg)
		if err == nil {
			break
		}
	}
	if err != nil {
		logx.Error().Err(err).Str("model", g.modelName).Msg("Model invocation failed")
		return nil, fmt.Errorf("generate content: %w", err)
	}

	reply := &Reply{Content: resp.Text()}
	for i, fc := range resp.FunctionCalls() {
		id := fc.ID
		if id == "" {
			// Gemini may omit call ids; synthesize one for result pairing.
			id = fmt.Sprintf("call_%d", i+1)
		}
		reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
			ID:   id,
			Name: fc.Name,
			Args: fc.Args,
		})
	}

	if len(reply.ToolCalls) > 0 {
		logx.Debug().Int("tool_count", len(reply.ToolCalls)).Msg("Model requested tool calls")
	}
	return reply, nil
}

var _ ChatModel = (*Gemini)(nil)
