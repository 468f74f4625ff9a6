package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

func newFakeSummarizer(gen generateFunc) *Summarizer {
	return &Summarizer{generate: gen}
}

func setBudget(t *testing.T, tokens int) {
	t.Helper()
	engine.Init(engine.Config{LLMModel: "test-model", LLMContextTokens: tokens})
	t.Cleanup(func() { engine.Init(engine.Config{}) })
}

func TestSummarizeEmptyInput(t *testing.T) {
	setBudget(t, 14000)
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		t.Fatal("generator must not run for empty input")
		return "", nil
	})
	got, err := s.Summarize(context.Background(), "   \n  ", StyleConcise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != NoContent {
		t.Errorf("got %q, want %q", got, NoContent)
	}
}

func TestSummarizeDirectPath(t *testing.T) {
	setBudget(t, 14000)
	calls := 0
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if !strings.Contains(prompt, "bullet-point") {
			t.Errorf("expected bullet prompt, got %q", prompt[:60])
		}
		return "- point one\n- point two", nil
	})
	got, err := s.Summarize(context.Background(), "a short transcript", StyleBullets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (direct path)", calls)
	}
	if got != "- point one\n- point two" {
		t.Errorf("got %q", got)
	}
}

func TestSummarizeUnknownStyleFallsBack(t *testing.T) {
	setBudget(t, 14000)
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		if !strings.Contains(prompt, "plain prose") {
			t.Errorf("expected concise prompt for unknown style")
		}
		return "summary", nil
	})
	if _, err := s.Summarize(context.Background(), "text", Style("fancy")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummarizeMapReduce(t *testing.T) {
	// 50k chars at a 14k-token budget: over the 80% direct threshold,
	// so the text must be split and reduced.
	setBudget(t, 14000)
	long := strings.Repeat("The speaker explains an idea in detail. ", 1250)

	var chunkCalls, combineCalls int
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "one part of a longer"):
			chunkCalls++
			return "part summary", nil
		case strings.Contains(prompt, "summaries of consecutive parts"):
			combineCalls++
			return "final summary", nil
		default:
			t.Errorf("unexpected prompt: %q", prompt[:60])
			return "", nil
		}
	})

	got, err := s.Summarize(context.Background(), long, StyleConcise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "final summary" {
		t.Errorf("got %q", got)
	}
	if chunkCalls < 2 {
		t.Errorf("chunk calls = %d, want >= 2", chunkCalls)
	}
	if combineCalls != 1 {
		t.Errorf("combine calls = %d, want 1", combineCalls)
	}
}

func TestSummarizeMapReducePartialNote(t *testing.T) {
	setBudget(t, 14000)
	long := strings.Repeat("Sentence about the topic under discussion. ", 1200)

	chunkCalls := 0
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		if strings.Contains(prompt, "one part of a longer") {
			chunkCalls++
			if chunkCalls == 1 {
				return "", errors.New("transient failure")
			}
			return "part summary", nil
		}
		return "final summary", nil
	})

	got, err := s.Summarize(context.Background(), long, StyleConcise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "could not be summarized") {
		t.Errorf("missing partial note in %q", got)
	}
}

func TestSummarizeDirectFailureDegrades(t *testing.T) {
	setBudget(t, 14000)
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		return "", errors.New("provider down")
	})
	got, err := s.Summarize(context.Background(), "a perfectly valid transcript", StyleConcise)
	if err != nil {
		t.Fatalf("backend failure must not surface as an error, got %v", err)
	}
	if !strings.Contains(got, "a perfectly valid transcript") {
		t.Errorf("degraded result should carry the transcript text, got %q", got)
	}
	if !strings.Contains(got, "summarization failed") {
		t.Errorf("degraded result missing the annotation, got %q", got)
	}
}

func TestSummarizeAllChunksFailDegrades(t *testing.T) {
	setBudget(t, 14000)
	long := strings.Repeat("Words words words words. ", 2500)

	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		return "", errors.New("provider down")
	})
	got, err := s.Summarize(context.Background(), long, StyleConcise)
	if err != nil {
		t.Fatalf("backend failure must not surface as an error, got %v", err)
	}
	if !strings.Contains(got, "summarization failed") {
		t.Errorf("degraded result missing the annotation, got %q", got)
	}
	if !strings.HasPrefix(got, "Words words") {
		t.Errorf("degraded result should start with the transcript excerpt, got %q", got[:40])
	}
}

func TestSummarizeCombineFailureKeepsParts(t *testing.T) {
	setBudget(t, 14000)
	long := strings.Repeat("The speaker explains an idea in detail. ", 1250)

	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "one part of a longer"):
			return "part summary", nil
		case strings.Contains(prompt, "summaries of consecutive parts"):
			return "", errors.New("provider down")
		default:
			t.Errorf("unexpected prompt: %q", prompt[:60])
			return "", nil
		}
	})

	got, err := s.Summarize(context.Background(), long, StyleConcise)
	if err != nil {
		t.Fatalf("combine failure must not surface as an error, got %v", err)
	}
	if !strings.Contains(got, "part summary") {
		t.Errorf("result should keep the part summaries, got %q", got)
	}
	if !strings.Contains(got, "could not be merged") {
		t.Errorf("result missing the merge note, got %q", got)
	}
}

func TestSummarizeContextLengthRetry(t *testing.T) {
	setBudget(t, 14000)
	calls := 0
	var promptLens []int
	s := newFakeSummarizer(func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		promptLens = append(promptLens, len(prompt))
		if calls == 1 {
			return "", errors.New("this model's maximum context length is 14000 tokens")
		}
		return "summary", nil
	})
	got, err := s.Summarize(context.Background(), strings.Repeat("word ", 2000), StyleConcise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "summary" {
		t.Errorf("got %q", got)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if promptLens[1] >= promptLens[0] {
		t.Error("retry prompt should be smaller than the original")
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 200) // 4800 chars
	pieces := splitText(text, 1000, 100)
	if len(pieces) < 4 {
		t.Fatalf("pieces = %d, want >= 4", len(pieces))
	}
	for i, p := range pieces {
		if len(p) > 1000 {
			t.Errorf("piece %d is %d chars, over size", i, len(p))
		}
	}
	// neighbors share text
	tail := pieces[0][len(pieces[0])-50:]
	if !strings.Contains(pieces[1], tail[:20]) {
		t.Error("no overlap carried between neighboring pieces")
	}
	if strings.Join(pieces, "") == "" {
		t.Error("pieces lost all content")
	}
}
