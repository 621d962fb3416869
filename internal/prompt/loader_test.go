package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestLoaderSections(t *testing.T) {
	loader := NewPromptLoader()

	tests := []struct {
		name string
		get  func() (string, error)
		want string
	}{
		{"GetComposerSystemPrompt", loader.GetComposerSystemPrompt, "music composition assistant"},
		{"GetNotationReference", loader.GetNotationReference, "NOTATION REFERENCE"},
		{"GetStyleHeuristics", loader.GetStyleHeuristics, "style,scales,rhythm,range"},
		{"GetDrummerSystemPrompt", loader.GetDrummerSystemPrompt, "pattern(drum=NAME"},
		{"GetDrummerToolDescription", loader.GetDrummerToolDescription, "semicolons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := tt.get()
			if err != nil {
				t.Fatalf("%s() returned error: %v", tt.name, err)
			}
			if content == "" {
				t.Fatalf("%s() returned empty string", tt.name)
			}
			if !strings.Contains(content, tt.want) {
				t.Errorf("%s() does not contain %q", tt.name, tt.want)
			}
			if content != strings.TrimSpace(content) {
				t.Errorf("%s() is not trimmed", tt.name)
			}
		})
	}
}

func TestGetStyleHint(t *testing.T) {
	loader := NewPromptLoader()

	hint, ok, err := loader.GetStyleHint("  Funk ")
	if err != nil {
		t.Fatalf("GetStyleHint() returned error: %v", err)
	}
	if !ok {
		t.Fatal("GetStyleHint(funk) not found")
	}
	if len(hint.Scales) != 3 || hint.Scales[0] != "dorian" {
		t.Errorf("unexpected scales: %v", hint.Scales)
	}
	if hint.Range != "E2-G3" {
		t.Errorf("unexpected range: %s", hint.Range)
	}

	if _, ok, _ := loader.GetStyleHint("polka"); ok {
		t.Error("GetStyleHint(polka) should not be found")
	}
}
