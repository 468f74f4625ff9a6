package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/anatolykoptev/go-kit/llm"
)

// clientRing rotates across one client per API key. Keys are consumed
// round-robin so a burst of summarization chunks spreads across quota
// pools instead of exhausting one key.
type clientRing struct {
	mu      sync.Mutex
	clients []*llm.Client
	next    int
}

func (r *clientRing) pick() *llm.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.clients[r.next]
	r.next = (r.next + 1) % len(r.clients)
	return c
}

var ring *clientRing

// InitLLM builds one completion client per configured API key.
// Must be called after Init.
func InitLLM() error {
	keys := append([]string{cfg.LLMAPIKey}, cfg.LLMAPIKeyFallbacks...)
	var clients []*llm.Client
	for _, key := range keys {
		if key == "" {
			continue
		}
		if cfg.HTTPClient != nil {
			clients = append(clients, llm.NewClient(cfg.LLMAPIBase, key, cfg.LLMModel,
				llm.WithMaxTokens(cfg.LLMMaxTokens),
				llm.WithTemperature(cfg.LLMTemperature),
				llm.WithHTTPClient(cfg.HTTPClient),
			))
		} else {
			clients = append(clients, llm.NewClient(cfg.LLMAPIBase, key, cfg.LLMModel,
				llm.WithMaxTokens(cfg.LLMMaxTokens),
				llm.WithTemperature(cfg.LLMTemperature),
			))
		}
	}
	if len(clients) == 0 {
		return fmt.Errorf("no LLM API keys configured")
	}
	ring = &clientRing{clients: clients}
	slog.Info("llm ready", slog.String("model", cfg.LLMModel), slog.Int("keys", len(clients)))
	return nil
}

// CallLLM runs a completion against the next client in the ring.
func CallLLM(ctx context.Context, system, prompt string) (string, error) {
	if ring == nil {
		return "", fmt.Errorf("llm not initialized")
	}
	IncrLLMCall()
	out, err := ring.pick().Complete(ctx, system, prompt)
	if err != nil {
		IncrLLMError()
		return "", err
	}
	return stripFences(out), nil
}

// stripFences removes a surrounding markdown code fence if the model
// wrapped its whole answer in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	end := strings.LastIndex(s, "```")
	if end <= 0 {
		return s
	}
	inner := s[3:end]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		// drop the language tag line
		if !strings.ContainsAny(inner[:nl], " \t") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

// IsContextLengthError reports whether err looks like the provider
// rejected the request for exceeding the model context window.
// Providers phrase this differently, so match loosely.
func IsContextLengthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"context length",
		"context_length",
		"maximum context",
		"token limit",
		"too many tokens",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
