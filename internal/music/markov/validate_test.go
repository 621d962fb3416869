package markov

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func issueKinds(issues []Issue) map[string][]string {
	kinds := make(map[string][]string)
	for _, is := range issues {
		kinds[is.Kind] = append(kinds[is.Kind], is.State)
	}
	return kinds
}

func TestValidate(t *testing.T) {
	cfg := Config{
		States:       []string{"1", "2", "3", "wat", "1"},
		InitialState: "9",
		Transitions: Table{
			{State: "1", Targets: []Transition{{Target: "2", Probability: 0.5}, {Target: "3", Probability: 0.3}}},
			{State: "2", Targets: []Transition{{Target: "7", Probability: 1}}},
			{State: "4", Targets: []Transition{{Target: "1", Probability: 1}}},
		},
		Steps:    4,
		Duration: Durations{1, 0},
	}

	kinds := issueKinds(Validate(cfg))

	assert.Contains(t, kinds[IssueDuplicate], "1")
	assert.Contains(t, kinds[IssueUnresolvable], "wat")
	assert.Contains(t, kinds[IssueUndeclared], "9")
	assert.Contains(t, kinds[IssueUndeclared], "7")
	assert.Contains(t, kinds[IssueUndeclared], "4")
	assert.Contains(t, kinds[IssueSum], "1")
	assert.Contains(t, kinds[IssueDeadEnd], "3")
	assert.Len(t, kinds[IssueDuration], 1)
}

func TestValidate_StructuralProblems(t *testing.T) {
	kinds := issueKinds(Validate(Config{Preset: "missing", Steps: 1}))
	assert.Len(t, kinds[IssueConfig], 1)

	kinds = issueKinds(Validate(Config{Steps: 0}))
	assert.Len(t, kinds[IssueConfig], 2)

	kinds = issueKinds(Validate(Config{Preset: "arpeggio", Steps: 2, ChordScale: "Zm"}))
	assert.Len(t, kinds[IssueConfig], 1)
}

func TestValidate_Clean(t *testing.T) {
	cfg := Config{
		States: []string{"1", "rest", "approach", "C5"},
		Transitions: Table{
			{State: "1", Targets: []Transition{{Target: "rest", Probability: 0.5}, {Target: "C5", Probability: 0.5}}},
			{State: "rest", Targets: []Transition{{Target: "approach", Probability: 1}}},
			{State: "approach", Targets: []Transition{{Target: "1", Probability: 1}}},
			{State: "C5", Targets: []Transition{{Target: "1", Probability: 1}}},
		},
		Steps: 8,
	}
	assert.Empty(t, Validate(cfg))
}
