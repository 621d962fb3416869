package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6
	defaultPricingModel = "gpt-5-mini"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable holds per-model rates. Lookups fall back to the longest
// matching prefix, so dated snapshots ("gpt-5-mini-2025-08-07") price as
// their family.
var PricingTable = map[string]ModelPricing{
	"gpt-5":            {InputPricePer1K: 0.00125, OutputPricePer1K: 0.01},
	"gpt-5-mini":       {InputPricePer1K: 0.00025, OutputPricePer1K: 0.002},
	"gpt-5-nano":       {InputPricePer1K: 0.00005, OutputPricePer1K: 0.0004},
	"gpt-4.1":          {InputPricePer1K: 0.002, OutputPricePer1K: 0.008},
	"gpt-4.1-mini":     {InputPricePer1K: 0.0004, OutputPricePer1K: 0.0016},
	"gpt-4o":           {InputPricePer1K: 0.005, OutputPricePer1K: 0.015},
	"gpt-4o-mini":      {InputPricePer1K: 0.00015, OutputPricePer1K: 0.0006},
	"gemini-2.5-pro":   {InputPricePer1K: 0.00125, OutputPricePer1K: 0.01},
	"gemini-2.5-flash": {InputPricePer1K: 0.0003, OutputPricePer1K: 0.0025},
}

// PricingFor returns the rates for a model
func PricingFor(model string) ModelPricing {
	model = strings.ToLower(model)
	if pricing, ok := PricingTable[model]; ok {
		return pricing
	}

	best := ""
	for name := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		best = defaultPricingModel
	}
	return PricingTable[best]
}

// CalculateCost calculates the cost in USD of one LLM call. Reasoning tokens
// are billed as output tokens and are already counted in OutputTokens.
func CalculateCost(model string, usage llm.TokenUsage) float64 {
	pricing := PricingFor(model)
	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K
	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
