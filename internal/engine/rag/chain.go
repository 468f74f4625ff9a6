package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Generator produces the final answer text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

// Answer is the result of one QA turn.
type Answer struct {
	Answer    string        `json:"answer"`
	SessionID string        `json:"session_id"`
	Context   string        `json:"context,omitempty"`
	Docs      []ScoredChunk `json:"docs,omitempty"`
	Degraded  bool          `json:"degraded,omitempty"`
}

// historyWindow caps how many past turns go into the prompt.
const historyWindow = 10

// Chain answers questions about one video. It degrades instead of
// failing: retrieval errors fall back to the full transcript, and
// generation errors produce an apologetic answer. Ask never returns
// an error once the session exists.
type Chain struct {
	videoID    string
	retriever  *Retriever
	sessions   *SessionStore
	gen        Generator
	transcript func(videoID string) (string, bool)
	timeout    time.Duration
}

// NewChain wires a QA chain for one video. transcript loads the full
// transcript text for the retrieval fallback; it may be nil.
func NewChain(videoID string, retriever *Retriever, sessions *SessionStore, gen Generator, transcript func(string) (string, bool)) *Chain {
	timeout := engine.Cfg.AnswerTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Chain{
		videoID:    videoID,
		retriever:  retriever,
		sessions:   sessions,
		gen:        gen,
		transcript: transcript,
		timeout:    timeout,
	}
}

// Ask runs one QA turn: session upkeep, retrieval, prompt assembly,
// generation, and history append.
func (c *Chain) Ask(ctx context.Context, question, sessionID string) *Answer {
	engine.IncrQuestion()

	sess := c.sessions.Create(sessionID, map[string]string{"video_id": c.videoID})
	sessionID = sess.ID

	history, err := c.sessions.Messages(sessionID)
	if err != nil {
		history = nil
	}
	if err := c.sessions.AppendUser(sessionID, question); err != nil {
		slog.Warn("session append failed", slog.String("session", sessionID), slog.Any("err", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	docs, contextText, degraded := c.buildContext(ctx, question)

	prompt := fmt.Sprintf(promptQA, formatHistory(history), contextText, question)
	answer, err := c.gen.Generate(ctx, systemQA, prompt)
	if err != nil {
		slog.Error("answer generation failed",
			slog.String("video", c.videoID),
			slog.String("session", sessionID),
			slog.Any("err", err))
		answer = fallbackAnswerError
		degraded = true
	}
	answer = strings.TrimSpace(answer)

	if err := c.sessions.AppendAssistant(sessionID, answer); err != nil {
		slog.Warn("session append failed", slog.String("session", sessionID), slog.Any("err", err))
	}

	return &Answer{
		Answer:    answer,
		SessionID: sessionID,
		Context:   contextText,
		Docs:      docs,
		Degraded:  degraded,
	}
}

// buildContext retrieves relevant chunks, falling back to the full
// transcript when retrieval fails or comes back empty.
func (c *Chain) buildContext(ctx context.Context, question string) (docs []ScoredChunk, contextText string, degraded bool) {
	docs, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		slog.Warn("retrieval failed, using full transcript",
			slog.String("video", c.videoID), slog.Any("err", err))
		docs = nil
		degraded = true
	}

	if len(docs) > 0 {
		parts := make([]string, len(docs))
		for i, d := range docs {
			parts[i] = d.Chunk.Content
		}
		return docs, strings.Join(parts, "\n\n"), degraded
	}

	if c.transcript != nil {
		if full, ok := c.transcript(c.videoID); ok && full != "" {
			// Cap the fallback: the full transcript of a long video
			// would blow the context window.
			budget := engine.ContextBudget(engine.Cfg.LLMModel)
			return nil, engine.TruncateRunes(full, budget/2*4, ""), degraded
		}
	}
	return nil, fallbackNoContext, degraded
}

func formatHistory(history []Message) string {
	if len(history) == 0 {
		return "(no previous messages)"
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}
