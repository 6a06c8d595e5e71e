package flow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lawgraph-core/server/internal/agent/chatmodel"
	"github.com/lawgraph-core/server/internal/agent/model"
	"github.com/lawgraph-core/server/internal/agent/prompts"
	logx "github.com/lawgraph-core/server/pkg/logger"
)

// Step identifies one node of the per-turn flow graph.
type Step int

const (
	StepAppendQuery Step = iota
	StepSummarize
	StepTrimInput
	StepChat
	StepTools
	StepTrimToolOutput
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepAppendQuery:
		return "append_query"
	case StepSummarize:
		return "summarize"
	case StepTrimInput:
		return "trim_input"
	case StepChat:
		return "chat"
	case StepTools:
		return "tools"
	case StepTrimToolOutput:
		return "trim_tool_output"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// ToolRunner executes one tool call. Errors are absorbed by the machine into
// in-band tool-result payloads.
type ToolRunner interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// Config bounds the flow: compression trigger, token budgets, and the tool
// loop limit.
type Config struct {
	SummarizeAfter   int
	SummaryMaxTokens int
	InputTokenBudget int
	ToolTokenBudget  int
	MaxToolRounds    int
}

func (c Config) withDefaults() Config {
	if c.SummarizeAfter <= 0 {
		c.SummarizeAfter = 3
	}
	if c.SummaryMaxTokens <= 0 {
		c.SummaryMaxTokens = 100
	}
	if c.InputTokenBudget <= 0 {
		c.InputTokenBudget = 3000
	}
	if c.ToolTokenBudget <= 0 {
		c.ToolTokenBudget = 7000
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 10
	}
	return c
}

// Machine executes the flow graph once per inbound turn, operating on one
// ChatState. It holds no per-turn state itself and is safe to share across
// sessions.
type Machine struct {
	model chatmodel.ChatModel
	tools ToolRunner
	cfg   Config
}

// New builds the turn controller.
func New(model chatmodel.ChatModel, tools ToolRunner, cfg Config) *Machine {
	return &Machine{
		model: model,
		tools: tools,
		cfg:   cfg.withDefaults(),
	}
}

// RunTurn drives the state machine from AppendQuery to Terminal and returns
// the final assistant content. On error the state may be partially mutated in
// memory; the caller must not persist it.
func (m *Machine) RunTurn(ctx context.Context, state *model.ChatState) (string, error) {
	step := StepAppendQuery
	rounds := 0

	for step != StepDone {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		logx.Debug().Str("step", step.String()).Msg("Flow step")

		switch step {
		case StepAppendQuery:
			step = m.appendQuery(state)

		case StepSummarize:
			if err := m.summarize(ctx, state); err != nil {
				return "", err
			}
			step = StepTrimInput

		case StepTrimInput:
			state.Messages = trimToBudget(
				state.Messages,
				m.cfg.InputTokenBudget,
				[]model.Role{model.RoleHuman},
				[]model.Role{model.RoleHuman, model.RoleTool},
				true,
			)
			step = StepChat

		case StepChat:
			reply, err := m.chat(ctx, state)
			if err != nil {
				return "", err
			}
			switch {
			case len(reply.ToolCalls) == 0:
				step = StepDone
			case rounds >= m.cfg.MaxToolRounds:
				logx.Warn().Int("rounds", rounds).Msg("Tool round limit reached; terminating with last response")
				step = StepDone
			default:
				step = StepTools
			}

		case StepTools:
			m.runTools(ctx, state)
			rounds++
			step = StepTrimToolOutput

		case StepTrimToolOutput:
			m.trimToolOutput(state)
			step = StepChat
		}
	}

	last := state.LastMessage()
	if last == nil || last.Role != model.RoleAssistant {
		return "", fmt.Errorf("turn finished without an assistant message")
	}
	return last.Content, nil
}

// appendQuery moves the pending query into history and branches on whether
// the accumulated human messages warrant compression.
func (m *Machine) appendQuery(state *model.ChatState) Step {
	state.Append(model.NewHumanMessage(state.PendingQuery))
	state.PendingQuery = ""

	if state.HumanCount() > m.cfg.SummarizeAfter {
		return StepSummarize
	}
	return StepTrimInput
}

// summarize compresses everything but the last two messages into the running
// summary via one model call. The summary swap and the message deletion are
// applied together after a successful call, so a model failure leaves the
// state logically untouched for the caller.
func (m *Machine) summarize(ctx context.Context, state *model.ChatState) error {
	instruction := prompts.SummaryInstruction(state.Summary, m.cfg.SummaryMaxTokens)

	request := make([]model.Message, 0, len(state.Messages)+1)
	request = append(request, state.Messages...)
	request = append(request, model.NewHumanMessage(instruction))

	reply, err := m.model.Generate(ctx, request)
	if err != nil {
		logx.Error().Err(err).Msg("Summary model invocation failed")
		return fmt.Errorf("summarize conversation: %w", err)
	}

	state.Summary = reply.Content
	if len(state.Messages) > 2 {
		kept := make([]model.Message, 2)
		copy(kept, state.Messages[len(state.Messages)-2:])
		state.Messages = kept
	}

	logx.Debug().Int("summary_len", len(reply.Content)).Msg("Conversation history compressed")
	return nil
}

// chat assembles the full prompt and invokes the model once, appending the
// reply to history.
func (m *Machine) chat(ctx context.Context, state *model.ChatState) (*chatmodel.Reply, error) {
	request := make([]model.Message, 0, len(state.Messages)+2)
	if state.Summary != "" {
		request = append(request, model.NewSystemMessage(prompts.SummaryContext(state.Summary)))
	}
	request = append(request, model.NewSystemMessage(prompts.SystemPrompt))
	request = append(request, state.Messages...)

	reply, err := m.model.Generate(ctx, request)
	if err != nil {
		logx.Error().Err(err).Msg("Chat model invocation failed")
		return nil, fmt.Errorf("invoke chat model: %w", err)
	}

	state.Append(model.NewAssistantMessage(reply.Content, reply.ToolCalls))
	return reply, nil
}

// runTools executes every call requested by the trailing assistant message,
// appending one tool-result message per call. A failing tool is narrated back
// as an in-band error payload; it never aborts the turn.
func (m *Machine) runTools(ctx context.Context, state *model.ChatState) {
	last := state.LastMessage()
	if last == nil || last.Role != model.RoleAssistant {
		return
	}
	parentID := last.ID
	calls := last.ToolCalls

	for _, call := range calls {
		out, err := m.tools.Invoke(ctx, call.Name, call.Args)
		isError := false
		if err != nil {
			logx.Warn().Err(err).Str("tool", call.Name).Msg("Tool call failed; continuing with error payload")
			payload, _ := json.Marshal(map[string]string{"error": err.Error(), "tool": call.Name})
			out = string(payload)
			isError = true
		}
		state.Append(model.NewToolMessage(call.Name, parentID, call.ID, out, isError))
	}
}

// trimToolOutput bounds the trailing assistant/tool exchange to the tool
// token budget and reassembles the history. Messages outside the trailing
// exchange keep their original relative order untouched; inside it, survival
// is decided by id membership in the trimmed window.
func (m *Machine) trimToolOutput(state *model.ChatState) {
	blockStart := trailingToolExchange(state.Messages)
	if blockStart < 0 {
		return
	}

	block := state.Messages[blockStart:]
	kept := trimToBudget(
		block,
		m.cfg.ToolTokenBudget,
		[]model.Role{model.RoleAssistant},
		[]model.Role{model.RoleTool},
		false,
	)
	keptIDs := idSet(kept)

	rebuilt := make([]model.Message, 0, len(state.Messages))
	rebuilt = append(rebuilt, state.Messages[:blockStart]...)
	for _, msg := range block {
		if _, ok := keptIDs[msg.ID]; ok {
			rebuilt = append(rebuilt, msg)
		}
	}
	state.Messages = rebuilt
}
