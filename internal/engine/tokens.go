package engine

// EstimateTokens approximates the token count of text. The 4 chars per
// token heuristic holds well enough for English transcripts; exact
// counts do not matter here because the summarizer only uses this to
// pick between direct and map-reduce paths.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// modelContextTokens maps known model families to context window sizes.
var modelContextTokens = map[string]int{
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-3.5-turbo": 16385,
}

// ContextBudget returns the context window for the configured model,
// falling back to the explicit config value and then to a conservative
// default.
func ContextBudget(model string) int {
	if n, ok := modelContextTokens[model]; ok {
		return n
	}
	if cfg.LLMContextTokens > 0 {
		return cfg.LLMContextTokens
	}
	return 16385
}
