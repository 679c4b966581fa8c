package types

import (
	"context"
)

// LLMClient defines the interface for LLM interactions.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// CompleteWithTools sends a prompt with tool definitions and returns the
	// response together with any tool calls the model requested.
	CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDefinition) (*LLMToolResponse, error)
}

// ToolDefinition describes a tool that the LLM can invoke.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// UsageMetadata captures token usage metrics from the LLM.
type UsageMetadata struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// LLMToolResponse contains both text response and tool calls from the LLM.
type LLMToolResponse struct {
	Text       string        `json:"text"`        // Text response (may be empty if only tool calls)
	ToolCalls  []ToolCall    `json:"tool_calls"`  // Tool invocations requested by the model
	StopReason string        `json:"stop_reason"` // "end_turn", "tool_use"
	Usage      UsageMetadata `json:"usage"`
}

// StringArg extracts a string argument from a tool call input. Returns the
// empty string when the key is missing or not a string.
func (c ToolCall) StringArg(key string) string {
	v, ok := c.Input[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IntArg extracts an integer argument from a tool call input. JSON numbers
// decode as float64, so both representations are accepted.
func (c ToolCall) IntArg(key string, fallback int) int {
	v, ok := c.Input[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
