package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/music/notation"
	"github.com/Conceptual-Machines/magda-composer/internal/observability"
	"github.com/Conceptual-Machines/magda-composer/internal/prompt"
)

const (
	maxComposeAttempts  = 2
	notationToolName    = "notation"
	notationDescription = "Write one musical pattern in compact notation: space-separated notes " +
		"(C4:q), rests (r:8) and chords ([Am7]:h), with optional bar lines."
)

// ProviderSource resolves an LLM provider for a model
type ProviderSource interface {
	GetProvider(ctx context.Context, model, providerName string) (llm.Provider, error)
}

// ComposeRequest asks the composer for one pattern
type ComposeRequest struct {
	Prompt      string  `json:"prompt" binding:"required"`
	Key         string  `json:"key,omitempty"`
	Style       string  `json:"style,omitempty"`
	Tempo       float64 `json:"tempo,omitempty"`
	Bars        int     `json:"bars,omitempty"`
	BeatsPerBar int     `json:"beats_per_bar,omitempty"`
	Instrument  string  `json:"instrument,omitempty"`
	Model       string  `json:"model,omitempty"`
	Provider    string  `json:"provider,omitempty"`

	UserID    string `json:"-"`
	RequestID string `json:"-"`
}

// ComposeResult is a validated pattern
type ComposeResult struct {
	Notation string             `json:"notation"`
	Elements []notation.Element `json:"elements"`
	Beats    float64            `json:"beats"`
	Attempts int                `json:"attempts"`
	Model    string             `json:"model"`
	Provider string             `json:"provider"`
	Usage    llm.TokenUsage     `json:"usage"`
	Cost     string             `json:"cost"`
	Warnings []string           `json:"warnings,omitempty"`
}

// ComposeError means every attempt produced notation the parser rejected
type ComposeError struct {
	Attempts int
	Last     string
	Err      error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("composer produced invalid notation after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ComposeError) Unwrap() error {
	return e.Err
}

// ComposerService asks an LLM for notation and validates it with the parser
type ComposerService struct {
	providers    ProviderSource
	builder      *prompt.Builder
	langfuse     *observability.LangfuseClient
	records      *RecordsService
	cloudwatch   *metrics.Client
	sentry       *metrics.SentryMetrics
	defaultModel string
}

func NewComposerService(
	providers ProviderSource,
	defaultModel string,
	langfuse *observability.LangfuseClient,
	records *RecordsService,
	cloudwatch *metrics.Client,
) *ComposerService {
	return &ComposerService{
		providers:    providers,
		builder:      prompt.NewPromptBuilder(),
		langfuse:     langfuse,
		records:      records,
		cloudwatch:   cloudwatch,
		sentry:       metrics.NewSentryMetrics(),
		defaultModel: defaultModel,
	}
}

// Compose generates a pattern. A pattern the parser rejects is sent back to
// the model once with the parse error; a second rejection is a *ComposeError.
func (s *ComposerService) Compose(ctx context.Context, req *ComposeRequest) (*ComposeResult, error) {
	startTime := time.Now()
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	transaction := sentry.StartTransaction(ctx, "composer.compose")
	defer transaction.Finish()
	transaction.SetTag("model", model)
	ctx = transaction.Context()

	provider, err := s.providers.GetProvider(ctx, model, req.Provider)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	systemPrompt, err := s.builder.BuildComposerPrompt()
	if err != nil {
		return nil, err
	}

	trace := s.langfuse.StartTrace(ctx, "compose", map[string]interface{}{
		"request_id": req.RequestID,
		"provider":   provider.Name(),
	})
	defer trace.Finish()

	brief := prompt.Brief{
		Request:     req.Prompt,
		Key:         req.Key,
		Style:       req.Style,
		Tempo:       req.Tempo,
		Bars:        req.Bars,
		BeatsPerBar: req.BeatsPerBar,
		Instrument:  req.Instrument,
	}

	var (
		usage    llm.TokenUsage
		output   string
		elements []notation.Element
		parseErr error
		attempt  int
	)
	for attempt = 1; attempt <= maxComposeAttempts; attempt++ {
		stage := LLMStageCompose
		if attempt > 1 {
			stage = LLMStageRepair
		}
		params := GetLLMParameters(stage, model)

		userPrompt, err := s.builder.BuildUserPrompt(brief)
		if err != nil {
			return nil, err
		}

		generation := trace.Generation(string(stage), map[string]interface{}{"attempt": attempt})
		resp, err := provider.Generate(ctx, &llm.GenerationRequest{
			Model:         params.Model,
			ReasoningMode: params.ReasoningMode,
			SystemPrompt:  systemPrompt,
			InputArray:    llm.UserMessage(userPrompt),
			CFGGrammar: &llm.CFGConfig{
				ToolName:    notationToolName,
				Description: notationDescription,
				Grammar:     llm.GetNotationGrammar(),
				Syntax:      "lark",
			},
		})
		if err != nil {
			generation.SetLevel("ERROR")
			generation.Finish()
			transaction.SetTag("success", "false")
			s.recordDuration(ctx, startTime, false)
			return nil, fmt.Errorf("composer request failed: %w", err)
		}

		usage = addUsage(usage, resp.Usage)
		output = resp.RawOutput
		generation.Record(params.Model, userPrompt, output, resp.Usage)

		elements, parseErr = notation.ParsePattern(output)
		if parseErr == nil {
			generation.Finish()
			break
		}

		generation.SetLevel("ERROR")
		generation.Finish()
		logger.Warn("Composer output rejected by parser", logger.Fields{
			"request_id": req.RequestID,
			"attempt":    attempt,
			"error":      parseErr.Error(),
		})
		brief.Previous = output
		brief.PreviousError = parseErr.Error()
	}
	attempt = min(attempt, maxComposeAttempts)

	s.sentry.RecordTokenUsage(ctx, model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens)
	s.cloudwatch.RecordTokenUsage(model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens)

	cost := observability.CalculateCost(model, usage)
	beats := 0.0
	for _, el := range elements {
		beats += el.Beats()
	}
	s.record(ctx, req, provider.Name(), model, output, beats, attempt, parseErr == nil, usage, cost, startTime)

	if parseErr != nil {
		transaction.SetTag("success", "false")
		s.recordDuration(ctx, startTime, false)
		return nil, &ComposeError{Attempts: attempt, Last: output, Err: parseErr}
	}

	result := &ComposeResult{
		Notation: output,
		Elements: elements,
		Beats:    beats,
		Attempts: attempt,
		Model:    model,
		Provider: provider.Name(),
		Usage:    usage,
		Cost:     observability.FormatCost(cost),
	}
	if want := expectedBeats(req); want > 0 && math.Abs(beats-want) > barTolerance {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("pattern is %g beats, %d bars should be %g beats", beats, req.Bars, want))
	}

	transaction.SetTag("success", "true")
	s.recordDuration(ctx, startTime, true)
	logger.LogGenerationRequest(ctx, model, time.Since(startTime),
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens, logger.Fields{"request_id": req.RequestID})
	return result, nil
}

func expectedBeats(req *ComposeRequest) float64 {
	if req.Bars <= 0 {
		return 0
	}
	beatsPerBar := req.BeatsPerBar
	if beatsPerBar <= 0 {
		beatsPerBar = defaultBeatsPerBar
	}
	return float64(req.Bars * beatsPerBar)
}

func addUsage(a, b llm.TokenUsage) llm.TokenUsage {
	return llm.TokenUsage{
		InputTokens:     a.InputTokens + b.InputTokens,
		OutputTokens:    a.OutputTokens + b.OutputTokens,
		ReasoningTokens: a.ReasoningTokens + b.ReasoningTokens,
		TotalTokens:     a.TotalTokens + b.TotalTokens,
	}
}

func (s *ComposerService) recordDuration(ctx context.Context, startTime time.Time, success bool) {
	duration := time.Since(startTime)
	s.sentry.RecordGenerationDuration(ctx, duration, success)
	s.cloudwatch.RecordGenerationDuration(duration, success)
}

func (s *ComposerService) record(
	ctx context.Context,
	req *ComposeRequest,
	providerName, model, output string,
	beats float64,
	attempts int,
	valid bool,
	usage llm.TokenUsage,
	cost float64,
	startTime time.Time,
) {
	if !s.records.Enabled() {
		return
	}
	err := s.records.SaveComposition(ctx, &models.Composition{
		UserID:          req.UserID,
		RequestID:       req.RequestID,
		Provider:        providerName,
		Model:           model,
		Prompt:          req.Prompt,
		Notation:        output,
		Beats:           beats,
		Attempts:        attempts,
		Valid:           valid,
		TotalTokens:     usage.TotalTokens,
		InputTokens:     usage.InputTokens,
		OutputTokens:    usage.OutputTokens,
		ReasoningTokens: usage.ReasoningTokens,
		CostUSD:         cost,
		DurationMS:      int(time.Since(startTime).Milliseconds()),
	})
	if err != nil && !errors.Is(err, ErrRecordsDisabled) {
		logger.Error("Failed to save composition record", err, logger.Fields{"request_id": req.RequestID})
	}
}
