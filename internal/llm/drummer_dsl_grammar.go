package llm

import (
	"fmt"
	"strings"
)

// DrumNames is the drum vocabulary the grammar allows. Every name has its own
// generator in the synth drum kit. Longer names precede their prefixes so the
// lexer never stops at "hat" inside "hat_open".
var DrumNames = []string{
	"kick", "bd",
	"snare_xstick", "snare_rim", "snare", "sd",
	"closed_hat", "hat_pedal", "hat_open", "hat", "hihat", "hh",
	"open_hat", "oh",
	"clap", "snap", "cp",
	"tom_high", "tom_mid", "tom_low", "tom",
	"ride_bell", "ride", "crash", "splash", "china",
}

// GetDrummerDSLGrammar returns the Lark grammar for drum grids. One grid
// character is a 16th note: "x" hit, "X" accent, "o" ghost, "-" rest.
// Lanes loop at the length of the longest grid.
func GetDrummerDSLGrammar() string {
	quoted := make([]string, len(DrumNames))
	for i, name := range DrumNames {
		quoted[i] = fmt.Sprintf("%q", name)
	}

	return `
// Drum grids, one pattern() per lane, lanes joined with ";"
//   pattern(drum=bd, grid="x---x---x---x---")
//   pattern(drum=sd, grid="----x-------x---", velocity=110); pattern(drum=hh, grid="x-x-x-x-x-x-x-x-")
//
// A grid of 16 characters is one 4/4 bar. Lane velocity (1-127, default 100)
// scales every hit: x=100 X=127 o=60 before scaling.

start: pattern_call (";" pattern_call)*

pattern_call: "pattern" "(" pattern_params ")"

pattern_params: pattern_named_params

pattern_named_params: pattern_named_param ("," SP pattern_named_param)*
pattern_named_param: "drum" "=" DRUM_NAME
                   | "grid" "=" STRING
                   | "velocity" "=" NUMBER

DRUM_NAME: ` + strings.Join(quoted, " | ") + `

SP: " "+
STRING: /"[xXo\-]*"/
NUMBER: /\d+/
`
}
