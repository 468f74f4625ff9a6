package engine

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"four chars", "abcd", 1},
		{"eight chars", "abcdefgh", 2},
		{"sentence", "the quick brown fox jumps over the lazy dog", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestContextBudget(t *testing.T) {
	if got := ContextBudget("gpt-3.5-turbo"); got != 16385 {
		t.Errorf("known model: got %d", got)
	}
	Init(Config{LLMContextTokens: 32000})
	if got := ContextBudget("some/custom-model"); got != 32000 {
		t.Errorf("config fallback: got %d", got)
	}
	Init(Config{})
	if got := ContextBudget("some/custom-model"); got != 16385 {
		t.Errorf("default fallback: got %d", got)
	}
}
