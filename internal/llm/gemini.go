// Package llm provides the Gemini-backed implementation of the LLMClient
// interface. The rest of the system only sees types.LLMClient, so tests and
// alternative providers plug in without touching the personas or sessions.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"voxtutor/internal/types"
)

// GeminiClient calls the Gemini API through the unified GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client for the given model. The API key is
// required; the model defaults to a fast conversational tier suited to
// voice latency.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Complete sends a bare prompt and returns the text response.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return g.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (g *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.generate(ctx, systemPrompt, userPrompt, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// CompleteWithTools sends a prompt with tool declarations and returns the
// text plus any tool calls the model requested.
func (g *GeminiClient) CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []types.ToolDefinition) (*types.LLMToolResponse, error) {
	var genaiTools []*genai.Tool
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(tools))
		for i, t := range tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaFromJSON(t.InputSchema),
			}
		}
		genaiTools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.generate(ctx, systemPrompt, userPrompt, genaiTools)
	if err != nil {
		return nil, err
	}

	out := &types.LLMToolResponse{
		Text:       resp.Text(),
		StopReason: "end_turn",
	}
	for _, fc := range resp.FunctionCalls() {
		out.ToolCalls = append(out.ToolCalls, types.ToolCall{
			ID:    fc.ID,
			Name:  fc.Name,
			Input: fc.Args,
		})
	}
	if len(out.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	}
	if resp.UsageMetadata != nil {
		out.Usage = types.UsageMetadata{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (g *GeminiClient) generate(ctx context.Context, systemPrompt, userPrompt string, tools []*genai.Tool) (*genai.GenerateContentResponse, error) {
	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if len(tools) > 0 {
		config.Tools = tools
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini generate failed: %w", err)
	}
	return resp, nil
}

// schemaFromJSON converts the JSON-schema input map used by tool
// definitions into the SDK's schema type. Only the object/string/integer
// subset the tools use is translated.
func schemaFromJSON(schema map[string]interface{}) *genai.Schema {
	if schema == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	out := &genai.Schema{Type: genai.TypeObject}

	if props, ok := schema["properties"].(map[string]interface{}); ok && len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			prop, _ := raw.(map[string]interface{})
			field := &genai.Schema{Type: genai.TypeString}
			if t, _ := prop["type"].(string); t == "integer" {
				field.Type = genai.TypeInteger
			}
			if desc, _ := prop["description"].(string); desc != "" {
				field.Description = desc
			}
			out.Properties[name] = field
		}
	}
	if required, ok := schema["required"].([]string); ok {
		out.Required = required
	} else if rawRequired, ok := schema["required"].([]interface{}); ok {
		for _, r := range rawRequired {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	return out
}
