package markov

// Preset is a named, ready-made state alphabet and transition table.
type Preset struct {
	States      []string
	Transitions Table
}

// Presets are the named transition tables a config may reference.
var Presets = map[string]Preset{
	"stepwise": {
		States: []string{"1", "2", "3", "4", "5"},
		Transitions: Table{
			{State: "1", Targets: []Transition{{"2", 0.5}, {"1", 0.2}, {"3", 0.3}}},
			{State: "2", Targets: []Transition{{"1", 0.4}, {"3", 0.4}, {"2", 0.2}}},
			{State: "3", Targets: []Transition{{"2", 0.4}, {"4", 0.4}, {"3", 0.2}}},
			{State: "4", Targets: []Transition{{"3", 0.5}, {"5", 0.4}, {"4", 0.1}}},
			{State: "5", Targets: []Transition{{"4", 0.6}, {"3", 0.2}, {"1", 0.2}}},
		},
	},
	"arpeggio": {
		States: []string{"1", "3", "5", "8"},
		Transitions: Table{
			{State: "1", Targets: []Transition{{"3", 0.7}, {"5", 0.3}}},
			{State: "3", Targets: []Transition{{"5", 0.7}, {"1", 0.3}}},
			{State: "5", Targets: []Transition{{"8", 0.5}, {"3", 0.3}, {"1", 0.2}}},
			{State: "8", Targets: []Transition{{"5", 0.6}, {"3", 0.4}}},
		},
	},
	"pentatonic_walk": {
		States: []string{"1", "2", "3", "5", "6"},
		Transitions: Table{
			{State: "1", Targets: []Transition{{"2", 0.4}, {"3", 0.3}, {"6", 0.3}}},
			{State: "2", Targets: []Transition{{"3", 0.4}, {"1", 0.4}, {"5", 0.2}}},
			{State: "3", Targets: []Transition{{"5", 0.4}, {"2", 0.4}, {"1", 0.2}}},
			{State: "5", Targets: []Transition{{"6", 0.4}, {"3", 0.4}, {"1", 0.2}}},
			{State: "6", Targets: []Transition{{"5", 0.5}, {"1", 0.3}, {"3", 0.2}}},
		},
	},
	"call_and_response": {
		States: []string{"1", "3", "5", "rest", "approach"},
		Transitions: Table{
			{State: "1", Targets: []Transition{{"3", 0.4}, {"5", 0.3}, {"rest", 0.3}}},
			{State: "3", Targets: []Transition{{"5", 0.4}, {"1", 0.3}, {"rest", 0.3}}},
			{State: "5", Targets: []Transition{{"3", 0.3}, {"approach", 0.3}, {"rest", 0.4}}},
			{State: "rest", Targets: []Transition{{"approach", 0.5}, {"1", 0.3}, {"5", 0.2}}},
			{State: "approach", Targets: []Transition{{"1", 0.6}, {"5", 0.4}}},
		},
	},
}
