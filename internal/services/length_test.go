package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/music/markov"
)

func TestPatternLength(t *testing.T) {
	tests := []struct {
		name string
		req  LengthRequest
		want LengthResult
	}{
		{
			name: "one bar of notation",
			req:  LengthRequest{Notation: "C4:q D4:h | r:q"},
			want: LengthResult{Beats: 4, Bars: 1, BarAligned: true, Elements: 3},
		},
		{
			name: "partial bar",
			req:  LengthRequest{Notation: "C4:q"},
			want: LengthResult{Beats: 1, Bars: 0.25, BarAligned: false, Elements: 1},
		},
		{
			name: "waltz meter",
			req:  LengthRequest{Notation: "C4:h. D4:h.", BeatsPerBar: 3},
			want: LengthResult{Beats: 6, Bars: 2, BarAligned: true, Elements: 2},
		},
		{
			name: "markov duration cycle",
			req:  LengthRequest{Markov: &markov.Config{Preset: "stepwise", Steps: 6, Duration: markov.Durations{1, 0.5}}},
			want: LengthResult{Beats: 4.5, Bars: 1.125, BarAligned: false, Elements: 6},
		},
		{
			name: "markov default duration",
			req:  LengthRequest{Markov: &markov.Config{Preset: "stepwise", Steps: 8}},
			want: LengthResult{Beats: 8, Bars: 2, BarAligned: true, Elements: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PatternLength(tt.req)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Beats, got.Beats, 1e-9)
			assert.InDelta(t, tt.want.Bars, got.Bars, 1e-9)
			assert.Equal(t, tt.want.BarAligned, got.BarAligned)
			assert.Equal(t, tt.want.Elements, got.Elements)
		})
	}
}

func TestPatternLength_Errors(t *testing.T) {
	for name, req := range map[string]LengthRequest{
		"neither":      {},
		"both":         {Notation: "C4:q", Markov: &markov.Config{Steps: 1}},
		"bad notation": {Notation: "C4:x"},
		"zero steps":   {Markov: &markov.Config{Preset: "stepwise"}},
		"huge steps":   {Markov: &markov.Config{Preset: "stepwise", Steps: markov.MaxSteps + 1}},
		"zero length":  {Markov: &markov.Config{Preset: "stepwise", Steps: 4, Duration: markov.Durations{1, 0}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := PatternLength(req)
			assert.Error(t, err)
		})
	}
}

func TestGetLLMParameters(t *testing.T) {
	assert.Equal(t, LLMParameters{Model: "gpt-5-mini", ReasoningMode: "low"}, GetLLMParameters(LLMStageCompose, "gpt-5-mini"))
	assert.Equal(t, LLMParameters{Model: "gpt-5-mini", ReasoningMode: "medium"}, GetLLMParameters(LLMStageRepair, "gpt-5-mini"))
	assert.Equal(t, "low", GetLLMParameters("other", "m").ReasoningMode)
}
