package llm

import "strings"

// pricing is USD per 1M tokens.
type pricing struct {
	input, output float64
}

var priceTable = map[string]pricing{
	"gpt-4-turbo":  {10.00, 30.00},
	"gpt-4o":       {2.50, 10.00},
	"gpt-4o-mini":  {0.15, 0.60},
	"gpt-4.1":      {2.00, 8.00},
	"gpt-4.1-mini": {0.40, 1.60},

	"claude-sonnet-4-5": {3.00, 15.00},
	"claude-haiku-4-5":  {0.80, 4.00},
	"claude-opus-4-1":   {15.00, 75.00},
}

// lookupPrice matches exact names first, then dated snapshots such as
// "gpt-4o-2024-08-06" or "claude-sonnet-4-5-20250929" by longest prefix.
func lookupPrice(model string) (pricing, bool) {
	if p, ok := priceTable[model]; ok {
		return p, true
	}
	best := ""
	for name := range priceTable {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return pricing{}, false
	}
	return priceTable[best], true
}

// EstimateCost returns the estimated cost in USD for the given model and token counts.
// Unknown models (including every local Ollama model) cost 0.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}

// EstimateTokens provides a rough token count estimation for the given text.
// Uses the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}
