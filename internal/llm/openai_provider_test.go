package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key")
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.NotNil(t, provider.client)
	assert.Equal(t, openAIResponsesURL, provider.endpoint)
}

func TestOpenAIProvider_BuildRequestParams(t *testing.T) {
	provider := NewOpenAIProvider("test-key")

	params := provider.buildRequestParams(&GenerationRequest{
		Model:         "gpt-5-mini",
		ReasoningMode: "medium",
		SystemPrompt:  "test system prompt",
		InputArray: []map[string]any{
			{"role": "developer", "content": "context"},
			{"role": "user", "content": "a melody"},
			{"role": "user"},
		},
	})

	assert.Equal(t, "gpt-5-mini", string(params.Model))
	assert.Equal(t, "test system prompt", params.Instructions.Value)
	assert.Len(t, params.Input.OfInputItemList, 2, "invalid items are skipped")
	assert.Equal(t, responses.ReasoningEffortMedium, params.Reasoning.Effort)
	assert.True(t, params.ParallelToolCalls.Value)

	cfgParams := provider.buildRequestParams(&GenerationRequest{
		Model:      "gpt-4.1-mini",
		CFGGrammar: &CFGConfig{ToolName: "notation"},
	})
	assert.False(t, cfgParams.ParallelToolCalls.Value)
	assert.Empty(t, cfgParams.Reasoning.Effort, "non-reasoning models get no effort")
}

func TestReasoningEffort(t *testing.T) {
	tests := []struct {
		mode string
		want shared.ReasoningEffort
	}{
		{"minimal", responses.ReasoningEffortLow},
		{"low", responses.ReasoningEffortLow},
		{"medium", responses.ReasoningEffortMedium},
		{"high", responses.ReasoningEffortHigh},
		{"none", shared.ReasoningEffort("none")},
		{"", responses.ReasoningEffortLow},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, reasoningEffort(tt.mode))
		})
	}

	assert.True(t, supportsReasoning("GPT-5.1"))
	assert.False(t, supportsReasoning("gpt-4o"))
}

func TestParseCFGResponse(t *testing.T) {
	body := []byte(`{
		"output": [
			{"type": "reasoning"},
			{"type": "custom_tool_call", "name": "notation", "input": "  C4:q E4:q  "}
		],
		"usage": {"input_tokens": 10, "output_tokens": 5, "total_tokens": 15,
			"output_tokens_details": {"reasoning_tokens": 2}}
	}`)

	resp, err := parseCFGResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "C4:q E4:q", resp.RawOutput)
	assert.Equal(t, TokenUsage{InputTokens: 10, OutputTokens: 5, ReasoningTokens: 2, TotalTokens: 15}, resp.Usage)

	_, err = parseCFGResponse([]byte(`{"output": [{"type": "message"}]}`))
	assert.ErrorContains(t, err, "did not call the CFG tool")

	_, err = parseCFGResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestOpenAIProvider_GenerateWithCFG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-5-mini", body["model"])
		assert.Equal(t, false, body["parallel_tool_calls"])
		tools, _ := body["tools"].([]any)
		assert.Len(t, tools, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":[{"type":"custom_tool_call","name":"notation","input":"C4:q r:q"}],` +
			`"usage":{"input_tokens":7,"output_tokens":3,"total_tokens":10}}`))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key")
	provider.endpoint = srv.URL

	resp, err := provider.Generate(context.Background(), &GenerationRequest{
		Model:        "gpt-5-mini",
		SystemPrompt: "compose",
		InputArray:   UserMessage("one bar"),
		CFGGrammar: &CFGConfig{
			ToolName:    "notation",
			Description: "compact notation",
			Grammar:     GetNotationGrammar(),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "C4:q r:q", resp.RawOutput)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key")
	provider.endpoint = srv.URL

	_, err := provider.Generate(context.Background(), &GenerationRequest{
		Model:      "gpt-5-mini",
		InputArray: UserMessage("one bar"),
		CFGGrammar: &CFGConfig{ToolName: "notation", Grammar: GetNotationGrammar()},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 429")
}

func TestCleanTextOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"C4:q D4:q", "C4:q D4:q"},
		{"```\nC4:q D4:q\n```", "C4:q D4:q"},
		{"```notation\nC4:q\n```", "C4:q"},
		{"```C4:q```", "C4:q"},
		{"  \n", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanTextOutput(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
