package model

import (
	"github.com/google/uuid"
)

// Role tags a conversation message variant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request, embedded in an assistant message, to
// invoke a named tool with arguments.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is a single entry in a conversation. The ID is assigned at creation
// and stable for the message's lifetime; trimming decisions compare IDs, never
// content, so two messages with identical text stay distinguishable.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Tool-result fields. ParentID references the assistant message whose
	// tool call produced this result; CallID carries the provider-level
	// call identifier for pairing.
	ToolName string `json:"tool_name,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	CallID   string `json:"call_id,omitempty"`
	IsError  bool   `json:"is_error,omitempty"`
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleSystem, Content: content}
}

// NewHumanMessage creates a user query message.
func NewHumanMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleHuman, Content: content}
}

// NewAssistantMessage creates a model reply message, optionally carrying
// tool-call requests.
func NewAssistantMessage(content string, toolCalls []ToolCall) Message {
	return Message{ID: uuid.NewString(), Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// NewToolMessage creates a tool-result message bound to the assistant message
// that requested the call.
func NewToolMessage(toolName, parentID, callID, content string, isError bool) Message {
	return Message{
		ID:       uuid.NewString(),
		Role:     RoleTool,
		Content:  content,
		ToolName: toolName,
		ParentID: parentID,
		CallID:   callID,
		IsError:  isError,
	}
}

// ToolSpec describes a callable tool in provider-neutral form. Parameters is a
// JSON-schema object as returned by the tool server.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}
