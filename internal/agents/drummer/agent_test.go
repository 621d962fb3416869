package drummer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/llm"
)

type stubProvider struct {
	output  string
	err     error
	request *llm.GenerationRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	s.request = request
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerationResponse{
		RawOutput: s.output,
		Usage:     llm.TokenUsage{InputTokens: 20, OutputTokens: 10, TotalTokens: 30},
	}, nil
}

func TestAgentGenerate(t *testing.T) {
	provider := &stubProvider{
		output: `pattern(drum=kick, grid="x---x---x---x---"); pattern(drum=snare, grid="----x-------x---")`,
	}
	agent, err := NewAgent(provider)
	require.NoError(t, err)

	result, err := agent.Generate(context.Background(), "gpt-5-mini", llm.UserMessage("four on the floor"))
	require.NoError(t, err)

	require.Len(t, result.Patterns, 2)
	assert.Equal(t, "kick", result.Patterns[0].Drum)
	assert.Equal(t, provider.output, result.DSL)
	assert.Equal(t, 30, result.Usage.TotalTokens)

	// The request is grammar constrained with the drummer DSL
	require.NotNil(t, provider.request.CFGGrammar)
	assert.Equal(t, drummerToolName, provider.request.CFGGrammar.ToolName)
	assert.Equal(t, llm.GetDrummerDSLGrammar(), provider.request.CFGGrammar.Grammar)
	assert.Contains(t, provider.request.SystemPrompt, "professional drummer")
	assert.Equal(t, "gpt-5-mini", provider.request.Model)
}

func TestAgentGenerate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		wantErr  string
	}{
		{name: "provider failure", provider: &stubProvider{err: errors.New("timeout")}, wantErr: "provider request failed"},
		{name: "empty output", provider: &stubProvider{output: ""}, wantErr: "no DSL output"},
		{name: "unparseable output", provider: &stubProvider{output: "C4:q"}, wantErr: "failed to parse DSL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent, err := NewAgent(tt.provider)
			require.NoError(t, err)

			_, err = agent.Generate(context.Background(), "gpt-5-mini", llm.UserMessage("beat"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
