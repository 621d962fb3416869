package llm

// GetNotationGrammar returns the Lark grammar for compact notation patterns.
// It mirrors the notation parser closely enough to steer a model; the parser
// stays the source of truth and rejects anything the grammar lets through.
func GetNotationGrammar() string {
	return `
// Compact notation - whitespace separated tokens, "|" is an optional bar line
// SYNTAX:
//   C4:q E4:8 G4:8. r:q [Am7]:h>
//   F#3:8t3* Bb4:q.fall@mf+10ms?0.5~>
//
// DURATIONS: w=4 h=2 q=1 8=1/2 16=1/4 32=1/8 beats, "." dots, "tN" tuplet (N 2-9)
// MODIFIERS (in order): articulation, jazz, ornament, @velocity, offset ms, ?probability, ~>

// ---------- Start rule ----------
start: item (SP item)*

item: note | rest | chord | BAR

// ---------- Tokens ----------
note: PITCH ":" DURATION DOT? TUPLET? ARTICULATION? JAZZ? ORNAMENT? VELOCITY? OFFSET? PROBABILITY? PORTAMENTO?
rest: "r:" DURATION DOT?
chord: "[" CHORD "]" ":" DURATION DOT? ARTICULATION?

// ---------- Terminals ----------
PITCH: /[A-G][#b]?(-?[0-9])?/
DURATION: "w" | "h" | "q" | "16" | "32" | "8" | "2" | "4"
DOT: "."
TUPLET: /t[2-9]/
ARTICULATION: "~>" | "*" | ">" | "^" | "~"
JAZZ: ".fall" | ".doit" | ".scoop" | /\.bend\+(1[0-2]|[1-9])/
ORNAMENT: ".turn" | ".tr" | ".mord"
VELOCITY: /@(ppp|pp|p|mp|mf|fff|ff|f|0(\.[0-9]+)?|1(\.0+)?)/
OFFSET: /[+-][0-9]+ms/
PROBABILITY: /\?(0(\.[0-9]+)?|1(\.0+)?)/
PORTAMENTO: "~>"
CHORD: /[A-G][#b]?[A-Za-z0-9#+()-]*(\/[A-G][#b]?)?/
BAR: "|"
SP: " "+
`
}
