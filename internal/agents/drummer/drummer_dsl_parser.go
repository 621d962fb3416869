package drummer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Conceptual-Machines/grammar-school-go/gs"

	"github.com/Conceptual-Machines/magda-composer/internal/llm"
)

const (
	defaultPatternVelocity = 100
	maxMIDIVelocity        = 127
)

// Pattern is one drum lane: a drum name and its step grid.
type Pattern struct {
	Drum     string `json:"drum"`
	Grid     string `json:"grid"`
	Velocity int    `json:"velocity"`
}

// DSLParser parses Drummer DSL code using Grammar School
type DSLParser struct {
	engine   *gs.Engine
	dsl      *DrummerDSL
	patterns []Pattern
}

// DrummerDSL implements the DSL side-effect methods
type DrummerDSL struct {
	parser *DSLParser
}

// NewDSLParser creates a new drummer DSL parser. A parser keeps state between
// calls and must not be shared across goroutines.
func NewDSLParser() (*DSLParser, error) {
	parser := &DSLParser{
		dsl:      &DrummerDSL{},
		patterns: make([]Pattern, 0),
	}
	parser.dsl.parser = parser

	engine, err := gs.NewEngine(llm.GetDrummerDSLGrammar(), parser.dsl, gs.NewLarkParser())
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	parser.engine = engine
	return parser, nil
}

// ParseDSL parses DSL code and returns the drum lanes in declaration order
func (p *DSLParser) ParseDSL(dslCode string) ([]Pattern, error) {
	if strings.TrimSpace(dslCode) == "" {
		return nil, fmt.Errorf("empty DSL code")
	}

	p.patterns = make([]Pattern, 0)

	if err := p.engine.Execute(context.Background(), dslCode); err != nil {
		return nil, fmt.Errorf("failed to execute DSL: %w", err)
	}

	if len(p.patterns) == 0 {
		return nil, fmt.Errorf("no patterns found in DSL code")
	}

	log.Printf("✅ Drummer DSL Parser: Translated %d patterns from DSL", len(p.patterns))
	return p.patterns, nil
}

// Pattern handles pattern() calls
func (d *DrummerDSL) Pattern(args gs.Args) error {
	p := d.parser

	drumName := ""
	if drumValue, ok := args["drum"]; ok && drumValue.Kind == gs.ValueString {
		drumName = drumValue.Str
	}
	if drumName == "" {
		return fmt.Errorf("pattern: missing drum name")
	}

	grid := ""
	if gridValue, ok := args["grid"]; ok && gridValue.Kind == gs.ValueString {
		grid = strings.Trim(gridValue.Str, "\"")
	}
	if grid == "" {
		return fmt.Errorf("pattern: missing grid")
	}
	if err := validateGrid(grid); err != nil {
		return fmt.Errorf("pattern %s: %w", drumName, err)
	}

	velocity := defaultPatternVelocity
	if velValue, ok := args["velocity"]; ok && velValue.Kind == gs.ValueNumber {
		velocity = int(velValue.Num)
	}
	if velocity < 1 || velocity > maxMIDIVelocity {
		return fmt.Errorf("pattern %s: velocity %d out of range 1-%d", drumName, velocity, maxMIDIVelocity)
	}

	p.patterns = append(p.patterns, Pattern{Drum: drumName, Grid: grid, Velocity: velocity})
	log.Printf("🥁 Pattern: drum=%s, grid=%s (%d hits)", drumName, grid, countHits(grid))

	return nil
}

func validateGrid(grid string) error {
	for i, c := range grid {
		if _, hit := gridVelocities[c]; !hit && c != restStep {
			return fmt.Errorf("invalid grid character %q at step %d", c, i)
		}
	}
	return nil
}

// countHits counts the number of hits in a grid string
func countHits(grid string) int {
	count := 0
	for _, c := range grid {
		if _, hit := gridVelocities[c]; hit {
			count++
		}
	}
	return count
}
