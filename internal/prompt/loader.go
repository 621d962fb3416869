package prompt

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-composer/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetComposerSystemPrompt loads the composer's main system prompt
func (l *Loader) GetComposerSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.ComposerSystemPromptTxt)), nil
}

// GetNotationReference loads the notation cheat sheet
func (l *Loader) GetNotationReference() (string, error) {
	return strings.TrimSpace(string(embedded.NotationReferenceTxt)), nil
}

// GetStyleHeuristics loads the style heuristics CSV as text
func (l *Loader) GetStyleHeuristics() (string, error) {
	return strings.TrimSpace(string(embedded.StyleHeuristicsCsv)), nil
}

// GetDrummerSystemPrompt loads the drummer system prompt
func (l *Loader) GetDrummerSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.DrummerSystemPromptTxt)), nil
}

// GetDrummerToolDescription loads the CFG tool description for the drummer
func (l *Loader) GetDrummerToolDescription() (string, error) {
	return strings.TrimSpace(string(embedded.DrummerToolDescriptionTxt)), nil
}

// StyleHint is one row of the style heuristics table
type StyleHint struct {
	Style  string
	Scales []string
	Rhythm string
	Range  string
}

// GetStyleHint looks up a style by name (case-insensitive).
func (l *Loader) GetStyleHint(style string) (StyleHint, bool, error) {
	records, err := csv.NewReader(bytes.NewReader(embedded.StyleHeuristicsCsv)).ReadAll()
	if err != nil {
		return StyleHint{}, false, fmt.Errorf("failed to read style heuristics: %w", err)
	}

	style = strings.ToLower(strings.TrimSpace(style))
	for _, rec := range records[1:] {
		if len(rec) < 4 || rec[0] != style {
			continue
		}
		return StyleHint{
			Style:  rec[0],
			Scales: strings.Split(rec[1], ";"),
			Rhythm: rec[2],
			Range:  rec[3],
		}, true, nil
	}
	return StyleHint{}, false, nil
}
