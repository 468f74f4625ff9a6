package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Style selects the shape of the final summary.
type Style string

const (
	StyleConcise  Style = "concise"
	StyleBullets  Style = "bullet_points"
	StyleDetailed Style = "detailed"
)

// NoContent is returned for empty input instead of an error; an empty
// transcript is a degenerate input, not a failure.
const NoContent = "No content to summarize."

const maxReduceDepth = 5

type generateFunc func(ctx context.Context, system, prompt string) (string, error)

// Summarizer produces transcript summaries, switching to map-reduce
// when the text does not fit the model context window.
type Summarizer struct {
	generate generateFunc
}

func NewSummarizer() *Summarizer {
	return &Summarizer{
		generate: func(ctx context.Context, system, prompt string) (string, error) {
			return engine.CallLLM(ctx, system, prompt)
		},
	}
}

// Summarize produces a summary of text in the requested style.
// Unknown styles fall back to concise. Backend failures degrade to an
// annotated partial result; the returned error is always nil for
// non-empty input.
func (s *Summarizer) Summarize(ctx context.Context, text string, style Style) (string, error) {
	engine.IncrSummary()

	text = strings.TrimSpace(text)
	if text == "" {
		return NoContent, nil
	}

	switch style {
	case StyleConcise, StyleBullets, StyleDetailed:
	default:
		slog.Debug("unknown summary style, using concise", slog.String("style", string(style)))
		style = StyleConcise
	}

	return s.summarize(ctx, text, style, 0), nil
}

func (s *Summarizer) summarize(ctx context.Context, text string, style Style, depth int) string {
	budget := engine.ContextBudget(engine.Cfg.LLMModel)

	// The prompt template, system prompt, and response all share the
	// window with the transcript; 80% leaves room for them.
	if engine.EstimateTokens(text) <= budget*80/100 {
		return s.direct(ctx, text, style)
	}

	if depth >= maxReduceDepth {
		slog.Warn("reduce depth exhausted, truncating", slog.Int("depth", depth))
		return s.direct(ctx, engine.Truncate(text, budget*80/100*4), style)
	}

	return s.mapReduce(ctx, text, style, depth)
}

// direct summarizes text in a single call. A context-length rejection
// gets one retry at half size; token estimation undershoots on some
// inputs. Any other backend failure degrades to a transcript excerpt.
func (s *Summarizer) direct(ctx context.Context, text string, style Style) string {
	out, err := s.generate(ctx, systemSummarizer, stylePrompt(style, text))
	if err == nil {
		return strings.TrimSpace(out)
	}
	if engine.IsContextLengthError(err) {
		slog.Warn("context length exceeded, retrying at half size", slog.Any("err", err))
		out, retryErr := s.generate(ctx, systemSummarizer, stylePrompt(style, engine.Truncate(text, len(text)/2)))
		if retryErr == nil {
			return strings.TrimSpace(out)
		}
		err = retryErr
	}
	slog.Error("summarization failed, degrading to excerpt", slog.Any("err", err))
	return excerptFallback(text)
}

// mapReduce splits the text, summarizes each piece, and recursively
// summarizes the concatenation.
func (s *Summarizer) mapReduce(ctx context.Context, text string, style Style, depth int) string {
	budget := engine.ContextBudget(engine.Cfg.LLMModel)
	chunkChars := budget * 70 / 100 * 4
	pieces := splitText(text, chunkChars, 400)

	slog.Info("map-reduce summarization",
		slog.Int("chunks", len(pieces)),
		slog.Int("depth", depth))

	parts := make([]string, 0, len(pieces))
	skipped := 0
	for i, piece := range pieces {
		out, err := s.generate(ctx, systemSummarizer, fmt.Sprintf(promptChunk, piece))
		if err != nil {
			skipped++
			slog.Warn("chunk summarization failed, skipping",
				slog.Int("chunk", i), slog.Any("err", err))
			continue
		}
		parts = append(parts, strings.TrimSpace(out))
	}
	if len(parts) == 0 {
		slog.Error("all chunk summaries failed, degrading to excerpt")
		return excerptFallback(text)
	}

	combined := strings.Join(parts, "\n\n")
	var result string
	if engine.EstimateTokens(combined) > budget*80/100 {
		result = s.summarize(ctx, combined, style, depth+1)
	} else if merged, err := s.combine(ctx, combined, style); err == nil {
		result = merged
	} else {
		slog.Warn("combining part summaries failed, keeping them separate", slog.Any("err", err))
		result = combined + "\n\n(Note: these part summaries could not be merged into one.)"
	}

	if skipped > 0 {
		result += fmt.Sprintf("\n\n(Note: %d of %d transcript parts could not be summarized.)", skipped, len(pieces))
	}
	return result
}

// excerptFallback stands in for a summary when the backend cannot
// produce one: the head of the transcript plus a note telling it
// apart from a real summary.
func excerptFallback(text string) string {
	const excerptRunes = 2000
	return engine.TruncateRunes(text, excerptRunes, "...") +
		"\n\n(Note: summarization failed; the text above is the start of the raw transcript.)"
}

func (s *Summarizer) combine(ctx context.Context, partSummaries string, style Style) (string, error) {
	shape := map[Style]string{
		StyleConcise:  "prose paragraphs",
		StyleBullets:  "bullet points",
		StyleDetailed: "detailed sections",
	}[style]
	out, err := s.generate(ctx, systemSummarizer, fmt.Sprintf(promptCombine, shape, partSummaries))
	if err != nil {
		return "", &engine.GenerationError{Op: "combine", Err: err}
	}
	return strings.TrimSpace(out), nil
}

func stylePrompt(style Style, text string) string {
	switch style {
	case StyleBullets:
		return fmt.Sprintf(promptBullets, text)
	case StyleDetailed:
		return fmt.Sprintf(promptDetailed, text)
	default:
		return fmt.Sprintf(promptConcise, text)
	}
}

// splitText cuts text into pieces of at most size chars, breaking at
// paragraph and sentence boundaries when possible, with overlap chars
// of context carried between neighbors.
func splitText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}
	var pieces []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			pieces = append(pieces, text[start:])
			break
		}
		cut := end
		window := text[start:end]
		if i := strings.LastIndex(window, "\n\n"); i > size/2 {
			cut = start + i
		} else if i := strings.LastIndex(window, ". "); i > size/2 {
			cut = start + i + 1
		} else if i := strings.LastIndex(window, " "); i > size/2 {
			cut = start + i
		}
		pieces = append(pieces, text[start:cut])
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return pieces
}
