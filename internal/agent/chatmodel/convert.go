package chatmodel

import (
	"strings"

	"github.com/lawgraph-core/server/internal/agent/model"
	"google.golang.org/genai"
)

// toContents maps conversation messages onto Gemini content turns. System
// messages are collected separately because Gemini takes them as a dedicated
// system instruction rather than a turn.
func toContents(messages []model.Message) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, msg.Content)

		case model.RoleHuman:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})

		case model.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		case model.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.CallID,
						Name:     msg.ToolName,
						Response: map[string]any{"output": msg.Content},
					},
				}},
			})
		}
	}

	return contents, strings.Join(system, "\n\n")
}

// functionDeclaration converts a provider-neutral tool spec into a Gemini
// function declaration.
func functionDeclaration(spec model.ToolSpec) *genai.FunctionDeclaration {
	decl := &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
	}
	if len(spec.Parameters) > 0 {
		decl.Parameters = schemaFromMap(spec.Parameters)
	}
	return decl
}

// schemaFromMap converts a JSON-schema object, as served over MCP, into a
// genai.Schema. Only the subset the tool server emits is handled.
func schemaFromMap(m map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		schema.Type = genaiType(t)
	}
	if desc, ok := m["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := m["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if pm, ok := raw.(map[string]any); ok {
				schema.Properties[name] = schemaFromMap(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		schema.Items = schemaFromMap(items)
	}
	if required, ok := m["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
