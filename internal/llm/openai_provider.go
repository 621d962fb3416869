package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/grammar-school-go/gs"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	// Role constants
	userRole      = "user"
	developerRole = "developer"
	assistantRole = "assistant"

	// Reasoning effort levels
	reasoningNone    = "none"
	reasoningMinimal = "minimal"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningHigh    = "high"

	providerNameOpenAI = "openai"

	openAIResponsesURL = "https://api.openai.com/v1/responses"
	customToolCallType = "custom_tool_call"
	httpTimeout        = 120 * time.Second

	maxPreviewChars      = 200
	maxErrorPreviewChars = 500
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client     *openai.Client
	apiKey     string // used for raw CFG requests the SDK cannot express
	endpoint   string
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:     &client,
		apiKey:     apiKey,
		endpoint:   openAIResponsesURL,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements generation using OpenAI's Responses API. Grammar
// constrained requests go through a raw HTTP call with a custom CFG tool.
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("cfg", fmt.Sprintf("%t", request.CFGGrammar != nil))

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	var (
		resp *GenerationResponse
		err  error
	)
	if request.CFGGrammar != nil {
		resp, err = p.generateWithCFG(ctx, params, request.CFGGrammar)
	} else {
		resp, err = p.generateText(ctx, params)
	}
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v (output: %d chars)", time.Since(startTime), len(resp.RawOutput))
	logUsageStats(resp.Usage)
	return resp, nil
}

// generateText uses the SDK for plain text output.
func (p *OpenAIProvider) generateText(ctx context.Context, params responses.ResponseNewParams) (*GenerationResponse, error) {
	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, err
	}

	text := cleanTextOutput(resp.OutputText())
	if text == "" {
		return nil, fmt.Errorf("openai response did not include any output text")
	}

	return &GenerationResponse{
		RawOutput: text,
		Usage:     usageFromSDK(resp.Usage),
	}, nil
}

// generateWithCFG sends the request with a grammar-constrained custom tool
// and returns the tool call input.
func (p *OpenAIProvider) generateWithCFG(
	ctx context.Context,
	params responses.ResponseNewParams,
	cfgGrammar *CFGConfig,
) (*GenerationResponse, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	var paramsMap map[string]any
	if err := json.Unmarshal(paramsJSON, &paramsMap); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	addCFGTool(paramsMap, cfgGrammar)

	body, err := p.postResponses(ctx, paramsMap)
	if err != nil {
		return nil, err
	}
	return parseCFGResponse(body)
}

// addCFGTool adds the CFG tool to request params
func addCFGTool(paramsMap map[string]any, cfgGrammar *CFGConfig) {
	syntax := cfgGrammar.Syntax
	if syntax == "" {
		syntax = "lark"
	}

	cfgTool := gs.BuildOpenAICFGTool(gs.CFGConfig{
		ToolName:    cfgGrammar.ToolName,
		Description: cfgGrammar.Description,
		Grammar:     gs.CleanGrammarForCFG(cfgGrammar.Grammar),
		Syntax:      syntax,
	})
	log.Printf("🔧 CFG GRAMMAR CONFIGURED: %s (syntax: %s)", cfgGrammar.ToolName, syntax)

	paramsMap["text"] = gs.GetOpenAITextFormatForCFG()
	paramsMap["tools"] = []any{cfgTool}
	paramsMap["parallel_tool_calls"] = false
}

// postResponses sends a raw request to the Responses endpoint
func (p *OpenAIProvider) postResponses(ctx context.Context, paramsMap map[string]any) ([]byte, error) {
	payload, err := json.Marshal(paramsMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	log.Printf("📤 Making raw HTTP request (JSON size: %d bytes)", len(payload))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, truncate(string(body), maxErrorPreviewChars))
	}
	return body, nil
}

// rawResponse is the subset of a Responses API payload read for CFG calls.
type rawResponse struct {
	Output []struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Input string `json:"input"`
	} `json:"output"`
	Usage struct {
		InputTokens         int `json:"input_tokens"`
		OutputTokens        int `json:"output_tokens"`
		TotalTokens         int `json:"total_tokens"`
		OutputTokensDetails struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"output_tokens_details"`
	} `json:"usage"`
}

// parseCFGResponse extracts the DSL from the custom tool call. A CFG request
// that produced plain text instead of a tool call is an error.
func parseCFGResponse(body []byte) (*GenerationResponse, error) {
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	log.Printf("🔍 Found output array with %d items", len(raw.Output))
	for _, item := range raw.Output {
		if item.Type != customToolCallType || strings.TrimSpace(item.Input) == "" {
			continue
		}
		log.Printf("✅ Found DSL in %s: %s", item.Name, truncate(item.Input, maxPreviewChars))
		return &GenerationResponse{
			RawOutput: strings.TrimSpace(item.Input),
			Usage: TokenUsage{
				InputTokens:     raw.Usage.InputTokens,
				OutputTokens:    raw.Usage.OutputTokens,
				ReasoningTokens: raw.Usage.OutputTokensDetails.ReasoningTokens,
				TotalTokens:     raw.Usage.TotalTokens,
			},
		}, nil
	}

	return nil, fmt.Errorf("CFG grammar was configured but the model did not call the CFG tool")
}

// buildRequestParams converts GenerationRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}

	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		var roleEnum responses.EasyInputMessageRole
		switch role {
		case developerRole:
			roleEnum = responses.EasyInputMessageRoleDeveloper
		case assistantRole:
			roleEnum = responses.EasyInputMessageRoleAssistant
		default:
			roleEnum = responses.EasyInputMessageRoleUser
		}

		inputItems = append(inputItems, responses.ResponseInputItemParamOfMessage(content, roleEnum))
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions:      openai.String(request.SystemPrompt),
		ParallelToolCalls: openai.Bool(request.CFGGrammar == nil),
	}

	// Only the GPT-5 family accepts reasoning parameters
	if supportsReasoning(request.Model) {
		params.Reasoning = shared.ReasoningParam{
			Effort: reasoningEffort(request.ReasoningMode),
		}
	}

	return params
}

func supportsReasoning(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gpt-5")
}

func reasoningEffort(mode string) shared.ReasoningEffort {
	switch mode {
	case reasoningMinimal, reasoningLow:
		return responses.ReasoningEffortLow
	case reasoningMedium:
		return responses.ReasoningEffortMedium
	case reasoningHigh:
		return responses.ReasoningEffortHigh
	case reasoningNone:
		return shared.ReasoningEffort(reasoningNone)
	default:
		return responses.ReasoningEffortLow
	}
}

func usageFromSDK(usage responses.ResponseUsage) TokenUsage {
	return TokenUsage{
		InputTokens:     int(usage.InputTokens),
		OutputTokens:    int(usage.OutputTokens),
		ReasoningTokens: int(usage.OutputTokensDetails.ReasoningTokens),
		TotalTokens:     int(usage.TotalTokens),
	}
}

// cleanTextOutput strips markdown code fences the model sometimes wraps output in
func cleanTextOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
			cleaned = cleaned[nl+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

func logUsageStats(usage TokenUsage) {
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens, usage.TotalTokens)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
