package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptBuilder(t *testing.T) {
	builder := NewPromptBuilder()
	if builder == nil {
		t.Fatal("NewPromptBuilder() returned nil")
		return
	}
	if builder.loader == nil {
		t.Fatal("NewPromptBuilder() created builder with nil loader")
	}
}

func TestBuildComposerPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	prompt, err := builder.BuildComposerPrompt()
	if err != nil {
		t.Fatalf("BuildComposerPrompt() returned error: %v", err)
	}

	for _, want := range []string{"music composition assistant", "NOTATION REFERENCE", "STYLE HEURISTICS"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("BuildComposerPrompt() does not contain %q", want)
		}
	}

	// Sections appear in a fixed order
	if strings.Index(prompt, "NOTATION REFERENCE") > strings.Index(prompt, "STYLE HEURISTICS") {
		t.Error("notation reference should precede style heuristics")
	}
}

func TestBuildDrummerPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	prompt, err := builder.BuildDrummerPrompt()
	if err != nil {
		t.Fatalf("BuildDrummerPrompt() returned error: %v", err)
	}
	if !strings.Contains(prompt, "professional drummer") {
		t.Error("BuildDrummerPrompt() does not contain drummer prompt")
	}

	desc, err := builder.DrummerToolDescription()
	if err != nil || desc == "" {
		t.Fatalf("DrummerToolDescription() = %q, %v", desc, err)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	builder := NewPromptBuilder()

	tests := []struct {
		name    string
		brief   Brief
		want    []string
		notWant []string
	}{
		{
			name:    "request only",
			brief:   Brief{Request: "  a sad melody "},
			want:    []string{"USER REQUEST: a sad melody"},
			notWant: []string{"Key:", "Tempo:", "Length:", "rejected"},
		},
		{
			name:  "full brief with known style",
			brief: Brief{Request: "bassline", Key: "E minor", Tempo: 96, Bars: 2, Style: "funk", Instrument: "bass"},
			want: []string{
				"Key: E minor",
				"Tempo: 96 BPM",
				"Length: exactly 2 bars of 4 beats (8 beats total)",
				"Instrument: bass",
				"Style: funk (scales: dorian, mixolydian, minor_pentatonic;",
			},
		},
		{
			name:  "unknown style and custom meter",
			brief: Brief{Request: "waltz", Style: "polka", Bars: 4, BeatsPerBar: 3},
			want:  []string{"Style: polka", "4 bars of 3 beats (12 beats total)"},
		},
		{
			name:  "retry feedback",
			brief: Brief{Request: "riff", Previous: "C4:x", PreviousError: "expected duration"},
			want:  []string{"rejected by the notation parser", "Previous pattern: C4:x", "Error: expected duration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.BuildUserPrompt(tt.brief)
			if err != nil {
				t.Fatalf("BuildUserPrompt() returned error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("BuildUserPrompt() missing %q in:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("BuildUserPrompt() should not contain %q", w)
				}
			}
		})
	}
}
