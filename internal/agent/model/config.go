package model

// ================ Config ================

// ChatModelConfig configures the response model invocation.
type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.4"`
	MaxRetries  int     `envconfig:"CHAT_MAX_RETRIES" default:"2"`
}

// ConversationConfig bounds the per-turn flow: when history gets compressed,
// how much context is fed to the model, and how tool loops are limited.
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"720h"`

	// SummarizeAfter is the human-message count above which a turn compresses
	// history into the running summary.
	SummarizeAfter int `envconfig:"CONVERSATION_SUMMARIZE_AFTER" default:"3"`

	// SummaryMaxTokens caps the length requested from the compression call.
	SummaryMaxTokens int `envconfig:"CONVERSATION_SUMMARY_MAX_TOKENS" default:"100"`

	// InputTokenBudget bounds the history handed to the chat model.
	InputTokenBudget int `envconfig:"CONVERSATION_INPUT_TOKEN_BUDGET" default:"3000"`

	// ToolTokenBudget bounds the trailing tool exchange after tool execution.
	ToolTokenBudget int `envconfig:"CONVERSATION_TOOL_TOKEN_BUDGET" default:"7000"`

	Tools struct {
		MaxRounds int    `envconfig:"CONVERSATION_TOOL_MAX_ROUNDS" default:"10"`
		Timeout   string `envconfig:"CONVERSATION_TOOL_TIMEOUT" default:"30s"`
	}

	Lock struct {
		TTL string `envconfig:"CONVERSATION_LOCK_TTL" default:"2m"`
	}
}
