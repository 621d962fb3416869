package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/music/synth"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &GenerationResponse{}, nil
}

func TestMockProviderGenerate(t *testing.T) {
	callCount := 0
	mock := &MockProvider{
		name: "test",
		generateFunc: func(_ context.Context, request *GenerationRequest) (*GenerationResponse, error) {
			callCount++
			require.Equal(t, "test-model", request.Model)
			return &GenerationResponse{RawOutput: "C4:q", Usage: TokenUsage{TotalTokens: 3}}, nil
		},
	}

	var provider Provider = mock
	resp, err := provider.Generate(context.Background(), &GenerationRequest{Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "C4:q", resp.RawOutput)
	assert.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestUserMessage(t *testing.T) {
	msgs := UserMessage("four bars in D dorian")
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0]["role"])
	assert.Equal(t, "four bars in D dorian", msgs[0]["content"])
}

func TestProviderFactory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		openaiKey    string
		geminiKey    string
		model        string
		providerName string
		wantName     string
		wantErr      string
	}{
		{name: "gpt model", openaiKey: "k", model: "gpt-5-mini", wantName: "openai"},
		{name: "unknown model defaults to openai", openaiKey: "k", model: "mystery", wantName: "openai"},
		{name: "explicit openai", openaiKey: "k", providerName: "OpenAI", wantName: "openai"},
		{name: "missing openai key", model: "gpt-5", wantErr: "openai API key not configured"},
		{name: "gemini model without key", openaiKey: "k", model: "gemini-2.5-flash", wantErr: "gemini API key not configured"},
		{name: "explicit gemini without key", providerName: "gemini", wantErr: "gemini API key not configured"},
		{name: "unknown provider", providerName: "claude", wantErr: "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewProviderFactory(tt.openaiKey, tt.geminiKey)
			p, err := f.GetProvider(ctx, tt.model, tt.providerName)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}

	assert.False(t, NewProviderFactory("", "").Available())
	assert.True(t, NewProviderFactory("", "g").Available())
}

func TestGrammars(t *testing.T) {
	notation := GetNotationGrammar()
	assert.True(t, strings.Contains(notation, "start:"))
	for _, terminal := range []string{"PITCH", "DURATION", "TUPLET", "VELOCITY", "PROBABILITY", "CHORD"} {
		assert.Contains(t, notation, terminal+":")
	}

	drummer := GetDrummerDSLGrammar()
	assert.Contains(t, drummer, "pattern_call")
	assert.Contains(t, drummer, `"hat_open"`)
	assert.NotContains(t, drummer, `"cowbell"`)
}

func TestDrumNames_MatchSynthKit(t *testing.T) {
	grammar := GetDrummerDSLGrammar()
	for i, name := range DrumNames {
		assert.True(t, synth.IsDrum(name), "%s has no drum generator", name)
		assert.Contains(t, grammar, `"`+name+`"`)
		for _, earlier := range DrumNames[:i] {
			assert.False(t, strings.HasPrefix(name, earlier) && name != earlier,
				"%s must come before its prefix %s", name, earlier)
		}
	}
}
