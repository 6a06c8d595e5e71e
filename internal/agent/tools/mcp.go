package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lawgraph-core/server/internal/agent/model"
	logx "github.com/lawgraph-core/server/pkg/logger"
	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// MCPConfig locates the retrieval tool gateway.
type MCPConfig struct {
	ServerURL string `envconfig:"MCP_SERVER_URL" required:"true"`
}

// MCPInvoker executes tools over the gateway's streamable HTTP transport.
type MCPInvoker struct {
	client *client.Client
}

// ConnectMCP dials the tool gateway, performs the MCP handshake and lists the
// served tools. The returned specs seed the process-wide registry.
func ConnectMCP(ctx context.Context, cfg MCPConfig) (*MCPInvoker, []model.ToolSpec, error) {
	mcpClient, err := client.NewStreamableHttpClient(cfg.ServerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create mcp client: %w", err)
	}

	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start mcp transport: %w", err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: mcptypes.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "lawgraph-server",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		return nil, nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return nil, nil, fmt.Errorf("list mcp tools: %w", err)
	}

	specs := make([]model.ToolSpec, 0, len(toolsResult.Tools))
	for _, t := range toolsResult.Tools {
		spec, err := toolSpec(t)
		if err != nil {
			logx.Error().Err(err).Str("tool", t.Name).Msg("Skipping tool with unusable schema")
			continue
		}
		specs = append(specs, spec)
	}

	logx.Debug().Int("tool_count", len(specs)).Str("server", cfg.ServerURL).Msg("Connected to tool gateway")
	return &MCPInvoker{client: mcpClient}, specs, nil
}

// Invoke calls one tool by name. Result text parts are concatenated; a
// protocol-level error result becomes a Go error for the caller to absorb.
func (m *MCPInvoker) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	res, err := m.client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", fmt.Errorf("call tool %q: %w", name, err)
	}

	var sb strings.Builder
	for _, content := range res.Content {
		if tc, ok := mcptypes.AsTextContent(content); ok {
			sb.WriteString(tc.Text)
		}
	}

	if res.IsError {
		return "", fmt.Errorf("tool %q failed: %s", name, sb.String())
	}
	return sb.String(), nil
}

// Close shuts down the underlying transport.
func (m *MCPInvoker) Close() error {
	return m.client.Close()
}

var _ Invoker = (*MCPInvoker)(nil)

// toolSpec converts an MCP tool descriptor to the provider-neutral form by
// round-tripping the input schema through JSON.
func toolSpec(t mcptypes.Tool) (model.ToolSpec, error) {
	spec := model.ToolSpec{
		Name:        t.Name,
		Description: t.Description,
	}

	raw, err := json.Marshal(t.InputSchema)
	if err != nil {
		return spec, fmt.Errorf("marshal input schema: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return spec, fmt.Errorf("unmarshal input schema: %w", err)
	}
	spec.Parameters = params
	return spec, nil
}
