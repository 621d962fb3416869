package drummer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/prompt"
)

const drummerToolName = "drummer_dsl"

// Agent generates drum patterns using LLM + CFG grammar
type Agent struct {
	provider        llm.Provider
	systemPrompt    string
	toolDescription string
	metrics         *metrics.SentryMetrics
}

// Result contains the DSL output and the parsed lanes
type Result struct {
	DSL      string         `json:"dsl"`
	Patterns []Pattern      `json:"patterns"`
	Usage    llm.TokenUsage `json:"usage"`
}

// NewAgent creates a drummer agent backed by the given provider
func NewAgent(provider llm.Provider) (*Agent, error) {
	builder := prompt.NewPromptBuilder()

	systemPrompt, err := builder.BuildDrummerPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to build drummer prompt: %w", err)
	}
	toolDescription, err := builder.DrummerToolDescription()
	if err != nil {
		return nil, fmt.Errorf("failed to build drummer tool description: %w", err)
	}

	log.Printf("🥁 DRUMMER AGENT INITIALIZED (provider: %s)", provider.Name())

	return &Agent{
		provider:        provider,
		systemPrompt:    systemPrompt,
		toolDescription: toolDescription,
		metrics:         metrics.NewSentryMetrics(),
	}, nil
}

// Generate creates drum pattern DSL from natural language
func (a *Agent) Generate(ctx context.Context, model string, inputArray []map[string]any) (*Result, error) {
	startTime := time.Now()
	log.Printf("🥁 DRUMMER REQUEST STARTED (Model: %s)", model)

	transaction := sentry.StartTransaction(ctx, "drummer.generate")
	defer transaction.Finish()
	transaction.SetTag("model", model)

	request := &llm.GenerationRequest{
		Model:        model,
		InputArray:   inputArray,
		SystemPrompt: a.systemPrompt,
		CFGGrammar: &llm.CFGConfig{
			ToolName:    drummerToolName,
			Description: a.toolDescription,
			Grammar:     llm.GetDrummerDSLGrammar(),
			Syntax:      "lark",
		},
	}

	resp, err := a.provider.Generate(transaction.Context(), request)
	if err != nil {
		a.fail(transaction, startTime)
		return nil, fmt.Errorf("provider request failed: %w", err)
	}

	if resp.RawOutput == "" {
		a.fail(transaction, startTime)
		return nil, fmt.Errorf("no DSL output in response")
	}
	log.Printf("🥁 DSL Output: %s", resp.RawOutput)

	// Parsers are stateful; one per request
	parser, err := NewDSLParser()
	if err != nil {
		a.fail(transaction, startTime)
		return nil, fmt.Errorf("failed to create DSL parser: %w", err)
	}

	patterns, err := parser.ParseDSL(resp.RawOutput)
	if err != nil {
		a.fail(transaction, startTime)
		return nil, fmt.Errorf("failed to parse DSL: %w", err)
	}

	transaction.SetTag("success", "true")
	transaction.SetTag("pattern_count", fmt.Sprintf("%d", len(patterns)))
	a.metrics.RecordTokenUsage(transaction.Context(), model,
		resp.Usage.TotalTokens, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.ReasoningTokens)
	a.metrics.RecordGenerationDuration(transaction.Context(), time.Since(startTime), true)

	log.Printf("✅ DRUMMER COMPLETE: %d patterns", len(patterns))

	return &Result{
		DSL:      resp.RawOutput,
		Patterns: patterns,
		Usage:    resp.Usage,
	}, nil
}

func (a *Agent) fail(transaction *sentry.Span, startTime time.Time) {
	transaction.SetTag("success", "false")
	a.metrics.RecordGenerationDuration(transaction.Context(), time.Since(startTime), false)
}
