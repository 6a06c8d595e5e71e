package chatmodel

import (
	"context"

	"github.com/lawgraph-core/server/internal/agent/model"
)

// Reply is one model response: literal text plus any tool-call requests the
// model embedded in it.
type Reply struct {
	Content   string
	ToolCalls []model.ToolCall
}

// ChatModel is the synchronous model-invocation boundary. Implementations may
// retry transient failures internally; a returned error is fatal to the turn.
type ChatModel interface {
	Generate(ctx context.Context, messages []model.Message) (*Reply, error)
}
