package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/llm"
)

func TestPricingFor(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-5-mini", "gpt-5-mini"},
		{"GPT-5-MINI", "gpt-5-mini"},
		{"gpt-5-mini-2025-08-07", "gpt-5-mini"},
		{"gpt-5.1", "gpt-5"},
		{"gemini-2.5-flash-lite", "gemini-2.5-flash"},
		{"unknown-model", defaultPricingModel},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, PricingTable[tt.want], PricingFor(tt.model))
		})
	}
}

func TestCalculateCost(t *testing.T) {
	usage := llm.TokenUsage{InputTokens: 2000, OutputTokens: 1000, ReasoningTokens: 400, TotalTokens: 3000}
	// 2 * 0.00025 + 1 * 0.002
	assert.InDelta(t, 0.0025, CalculateCost("gpt-5-mini", usage), 1e-12)
	assert.Zero(t, CalculateCost("gpt-5", llm.TokenUsage{}))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.002500", FormatCost(0.0025))
	assert.Equal(t, "$0.000000", FormatCost(0))
}

func TestDisabledLangfuse(t *testing.T) {
	ctx := context.Background()
	client := NewLangfuseClient(ctx, &config.Config{LangfuseEnabled: false})
	assert.False(t, client.IsEnabled())

	trace := client.StartTrace(ctx, "compose", nil)
	gen := trace.Generation("notation", nil)
	assert.NotPanics(t, func() {
		gen.Record("gpt-5-mini", "prompt", "C4:q", llm.TokenUsage{TotalTokens: 1})
		gen.SetLevel("ERROR")
		gen.Finish()
		trace.Finish()
	})

	var nilClient *LangfuseClient
	assert.False(t, nilClient.IsEnabled())
	assert.False(t, NewLangfuseClient(ctx, &config.Config{LangfuseEnabled: true}).IsEnabled())
}
