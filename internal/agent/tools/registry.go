package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/lawgraph-core/server/internal/agent/model"
	logx "github.com/lawgraph-core/server/pkg/logger"
)

// Invoker executes a named tool with a structured argument object.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// Registry is the process-wide set of callable tools. It is populated once at
// startup and read-only afterwards, shared safely across sessions.
type Registry struct {
	specs   []model.ToolSpec
	known   map[string]struct{}
	invoker Invoker
	timeout time.Duration
}

// NewRegistry builds an immutable registry over the given specs and invoker.
// The timeout bounds each tool call; zero disables the bound.
func NewRegistry(specs []model.ToolSpec, invoker Invoker, timeout time.Duration) *Registry {
	known := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		known[s.Name] = struct{}{}
	}
	return &Registry{
		specs:   specs,
		known:   known,
		invoker: invoker,
		timeout: timeout,
	}
}

// Specs returns a copy of the registered tool specs.
func (r *Registry) Specs() []model.ToolSpec {
	out := make([]model.ToolSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Invoke runs one tool call. Hallucinated or malformed names are absorbed
// into a compact structured message the model can use to proceed, never a
// hard failure.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	if _, ok := r.known[name]; !ok {
		logx.Warn().Str("tool_name", name).Msg("Unknown or invalid tool call; returning fallback result")
		return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	return r.invoker.Invoke(ctx, name, args)
}
