package markov

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
)

const probabilityTolerance = 1e-6

// Issue kinds
const (
	IssueConfig       = "config"
	IssueDeadEnd      = "dead_end"
	IssueSum          = "probability_sum"
	IssueUndeclared   = "undeclared_state"
	IssueUnresolvable = "unresolvable_state"
	IssueDuplicate    = "duplicate_state"
	IssueDuration     = "duration"
)

// Issue is a non-fatal problem found in a config.
type Issue struct {
	Kind    string `json:"kind"`
	State   string `json:"state,omitempty"`
	Message string `json:"message"`
}

// Validate reports configuration problems the generator tolerates at runtime.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(kind, state, format string, args ...interface{}) {
		issues = append(issues, Issue{Kind: kind, State: state, Message: fmt.Sprintf(format, args...)})
	}

	cfg, err := cfg.withPreset()
	if err != nil {
		add(IssueConfig, "", "%v", err)
		return issues
	}
	if cfg.Steps < 1 {
		add(IssueConfig, "", "steps must be at least 1, got %d", cfg.Steps)
	}
	if cfg.Steps > MaxSteps {
		add(IssueConfig, "", "steps must be at most %d, got %d", MaxSteps, cfg.Steps)
	}
	for i, d := range cfg.Duration {
		if d <= 0 {
			add(IssueDuration, "", "duration[%d] must be positive, got %g", i, d)
		}
	}
	if cfg.ChordScale != "" {
		if _, err := theory.ChordScale(cfg.ChordScale); err != nil {
			add(IssueConfig, "", "chord scale: %v", err)
		}
	}

	states := cfg.declaredStates()
	if len(states) == 0 {
		add(IssueConfig, "", "no states declared")
		return issues
	}

	declared := make(map[string]bool, len(states))
	for _, s := range states {
		if declared[s] {
			add(IssueDuplicate, s, "state %q declared more than once", s)
		}
		declared[s] = true
		if !resolvable(s) {
			add(IssueUnresolvable, s, "state %q is not a scale degree, pitch, %q or %q", s, StateRest, StateApproach)
		}
	}

	if cfg.InitialState != "" && !declared[cfg.InitialState] {
		add(IssueUndeclared, cfg.InitialState, "initial state %q is not declared", cfg.InitialState)
	}

	for _, row := range cfg.Transitions {
		if !declared[row.State] {
			add(IssueUndeclared, row.State, "transition row for undeclared state %q", row.State)
		}
	}

	for _, s := range states {
		targets, _ := cfg.Transitions.Targets(s)
		if len(targets) == 0 {
			add(IssueDeadEnd, s, "state %q has no outgoing transitions and will repeat", s)
			continue
		}
		sum := 0.0
		for _, t := range targets {
			sum += t.Probability
			if t.Probability < 0 || t.Probability > 1 {
				add(IssueSum, s, "transition %s -> %s has probability %g outside [0,1]", s, t.Target, t.Probability)
			}
			if !declared[t.Target] {
				add(IssueUndeclared, t.Target, "transition %s -> %s targets an undeclared state", s, t.Target)
			}
		}
		if math.Abs(sum-1) > probabilityTolerance {
			add(IssueSum, s, "transitions from %q sum to %g, expected 1", s, sum)
		}
	}

	return issues
}

func resolvable(state string) bool {
	if state == StateRest || state == StateApproach {
		return true
	}
	_, ok := resolveToken(state, theory.CMajor, DefaultOctave)
	return ok
}
