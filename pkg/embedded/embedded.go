package embedded

import (
	_ "embed"
)

// Composer prompt data
//
//go:embed data/composer/system_prompt.txt
var ComposerSystemPromptTxt []byte

//go:embed data/composer/notation_reference.txt
var NotationReferenceTxt []byte

//go:embed data/composer/style_heuristics.csv
var StyleHeuristicsCsv []byte

// Drummer prompt data
//
//go:embed data/drummer/system_prompt.txt
var DrummerSystemPromptTxt []byte

//go:embed data/drummer/tool_description.txt
var DrummerToolDescriptionTxt []byte
