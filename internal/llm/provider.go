package llm

import (
	"context"
)

// Provider defines the interface for LLM providers.
// Providers return raw text; callers parse it with the notation or drum DSL parsers.
type Provider interface {
	// Generate runs a single completion. When CFGGrammar is set the provider
	// constrains (or at least instructs) the model to emit text in that grammar.
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model         string
	InputArray    []map[string]any
	ReasoningMode string
	SystemPrompt  string
	// CFG Grammar for DSL output
	CFGGrammar *CFGConfig
}

// CFGConfig contains context-free grammar configuration
type CFGConfig struct {
	ToolName    string // Name of the tool that will receive the DSL output
	Description string // Description of what the tool does
	Grammar     string // Lark grammar definition
	Syntax      string // "lark" or "regex" (default: "lark")
}

// TokenUsage is provider-neutral token accounting.
type TokenUsage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	TotalTokens     int `json:"total_tokens"`
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput string     `json:"raw_output"`
	Usage     TokenUsage `json:"usage"`
}

// UserMessage builds a single-message input array.
func UserMessage(content string) []map[string]any {
	return []map[string]any{{"role": userRole, "content": content}}
}
