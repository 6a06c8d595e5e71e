package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lawgraph-core/server/internal/agent/chatmodel"
	"github.com/lawgraph-core/server/internal/agent/flow"
	"github.com/lawgraph-core/server/internal/agent/model"
	"github.com/lawgraph-core/server/internal/agent/prompts"
	"github.com/lawgraph-core/server/internal/agent/tools"
	logx "github.com/lawgraph-core/server/pkg/logger"
)

// Config holds everything needed to compose the legal agent end-to-end.
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    model.ChatModelConfig
	Conversation model.ConversationConfig
	Registry     *tools.Registry
	StateRepo    model.StateRepository
	Locker       model.SessionLocker
}

// Agent runs one conversational turn per request: lock the session, load
// state, drive the flow machine, persist, answer.
type Agent struct {
	model   chatmodel.ChatModel
	machine *flow.Machine
	repo    model.StateRepository
	locker  model.SessionLocker
	lockTTL time.Duration
}

// New builds the chat model with the registry's tools bound and assembles the
// turn controller around it.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	if cfg.StateRepo == nil {
		return nil, fmt.Errorf("state repository is nil")
	}
	if cfg.Locker == nil {
		return nil, fmt.Errorf("session locker is nil")
	}

	lockTTL, err := time.ParseDuration(cfg.Conversation.Lock.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid lock TTL %q: %w", cfg.Conversation.Lock.TTL, err)
	}

	gemini, err := chatmodel.NewGemini(ctx, chatmodel.GeminiConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ChatModel,
		Tools:   cfg.Registry.Specs(),
	})
	if err != nil {
		return nil, err
	}

	machine := flow.New(gemini, cfg.Registry, flow.Config{
		SummarizeAfter:   cfg.Conversation.SummarizeAfter,
		SummaryMaxTokens: cfg.Conversation.SummaryMaxTokens,
		InputTokenBudget: cfg.Conversation.InputTokenBudget,
		ToolTokenBudget:  cfg.Conversation.ToolTokenBudget,
		MaxToolRounds:    cfg.Conversation.Tools.MaxRounds,
	})

	logx.Debug().Msg("Agent assembled")
	return &Agent{
		model:   gemini,
		machine: machine,
		repo:    cfg.StateRepo,
		locker:  cfg.Locker,
		lockTTL: lockTTL,
	}, nil
}

// Respond runs one turn for the session. The state snapshot is written back
// only after the whole turn succeeds; any model or persistence failure leaves
// the stored state untouched.
func (a *Agent) Respond(ctx context.Context, sessionID, query string) (string, error) {
	unlock, err := a.locker.Lock(ctx, sessionID, a.lockTTL)
	if err != nil {
		return "", fmt.Errorf("serialize session %q: %w", sessionID, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Msg("Failed to release session lock")
		}
	}()

	state, err := a.repo.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	state.PendingQuery = query

	answer, err := a.machine.RunTurn(ctx, state)
	if err != nil {
		return "", err
	}

	if err := a.repo.Save(ctx, sessionID, state); err != nil {
		return "", err
	}
	return answer, nil
}

// ClearSession erases the persisted conversation state for the session.
func (a *Agent) ClearSession(ctx context.Context, sessionID string) error {
	return a.repo.Delete(ctx, sessionID)
}

// Title generates a short display name for a chat from its first query. A
// failure here is cosmetic, so callers treat it as best effort.
func (a *Agent) Title(ctx context.Context, userQuery string) (string, error) {
	reply, err := a.model.Generate(ctx, []model.Message{
		model.NewHumanMessage(prompts.ChatTitle(userQuery)),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply.Content), nil
}
