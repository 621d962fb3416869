package prompt

import (
	"fmt"
	"strings"
)

// Builder assembles system and user prompts for the composer and drummer
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// Brief describes what the composer is asked to write
type Brief struct {
	Request       string
	Key           string
	Style         string
	Tempo         float64
	Bars          int
	BeatsPerBar   int
	Instrument    string
	PreviousError string // parser feedback from a rejected attempt
	Previous      string // the rejected pattern
}

// BuildComposerPrompt builds the composer system prompt
func (b *Builder) BuildComposerPrompt() (string, error) {
	var sections []string

	for _, get := range []func() (string, error){
		b.loader.GetComposerSystemPrompt,
		b.loader.GetNotationReference,
	} {
		section, err := get()
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	}

	heuristics, err := b.loader.GetStyleHeuristics()
	if err != nil {
		return "", err
	}
	sections = append(sections, "STYLE HEURISTICS (CSV):\n"+heuristics)

	return strings.Join(sections, "\n\n"), nil
}

// BuildDrummerPrompt builds the drummer system prompt
func (b *Builder) BuildDrummerPrompt() (string, error) {
	return b.loader.GetDrummerSystemPrompt()
}

// DrummerToolDescription returns the CFG tool description for drum DSL output
func (b *Builder) DrummerToolDescription() (string, error) {
	return b.loader.GetDrummerToolDescription()
}

// BuildUserPrompt turns a brief into the user message
func (b *Builder) BuildUserPrompt(brief Brief) (string, error) {
	var sb strings.Builder
	sb.WriteString("USER REQUEST: ")
	sb.WriteString(strings.TrimSpace(brief.Request))
	sb.WriteString("\n")

	if brief.Key != "" {
		fmt.Fprintf(&sb, "Key: %s\n", brief.Key)
	}
	if brief.Tempo > 0 {
		fmt.Fprintf(&sb, "Tempo: %g BPM\n", brief.Tempo)
	}
	if brief.Bars > 0 {
		beatsPerBar := brief.BeatsPerBar
		if beatsPerBar <= 0 {
			beatsPerBar = 4
		}
		fmt.Fprintf(&sb, "Length: exactly %d bars of %d beats (%d beats total)\n",
			brief.Bars, beatsPerBar, brief.Bars*beatsPerBar)
	}
	if brief.Instrument != "" {
		fmt.Fprintf(&sb, "Instrument: %s\n", brief.Instrument)
	}

	if brief.Style != "" {
		hint, ok, err := b.loader.GetStyleHint(brief.Style)
		if err != nil {
			return "", err
		}
		if ok {
			fmt.Fprintf(&sb, "Style: %s (scales: %s; rhythm: %s; range: %s)\n",
				hint.Style, strings.Join(hint.Scales, ", "), hint.Rhythm, hint.Range)
		} else {
			fmt.Fprintf(&sb, "Style: %s\n", brief.Style)
		}
	}

	if brief.PreviousError != "" {
		sb.WriteString("\nYour previous pattern was rejected by the notation parser.\n")
		if brief.Previous != "" {
			fmt.Fprintf(&sb, "Previous pattern: %s\n", brief.Previous)
		}
		fmt.Fprintf(&sb, "Error: %s\nWrite a corrected pattern.\n", brief.PreviousError)
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}
