package services

// LLMStage represents which attempt of a composition we're in
type LLMStage string

const (
	LLMStageCompose LLMStage = "compose"
	LLMStageRepair  LLMStage = "repair" // retry after the parser rejected the first attempt
)

// Reasoning effort constants
const (
	reasoningEffortLow    = "low"
	reasoningEffortMedium = "medium"
)

// LLMParameters contains the model configuration for one composer call
type LLMParameters struct {
	Model         string
	ReasoningMode string
}

// GetLLMParameters returns the parameters for a stage. Repairs think harder:
// the model has to read a parser error and fix its own output.
func GetLLMParameters(stage LLMStage, model string) LLMParameters {
	switch stage {
	case LLMStageRepair:
		return LLMParameters{Model: model, ReasoningMode: reasoningEffortMedium}
	case LLMStageCompose:
		fallthrough
	default:
		return LLMParameters{Model: model, ReasoningMode: reasoningEffortLow}
	}
}
