package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	DownloadRequests   atomic.Int64
	DownloadFailures   atomic.Int64
	CaptionFetches     atomic.Int64
	TranscriptRequests atomic.Int64
	WhisperRuns        atomic.Int64
	SummaryRequests    atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	EmbeddingCalls     atomic.Int64
	EmbeddingErrors    atomic.Int64
	Questions          atomic.Int64
	RetrievalEmpty     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"download_requests":   metrics.DownloadRequests.Load(),
		"download_failures":   metrics.DownloadFailures.Load(),
		"caption_fetches":     metrics.CaptionFetches.Load(),
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"whisper_runs":        metrics.WhisperRuns.Load(),
		"summary_requests":    metrics.SummaryRequests.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"embedding_calls":     metrics.EmbeddingCalls.Load(),
		"embedding_errors":    metrics.EmbeddingErrors.Load(),
		"questions":           metrics.Questions.Load(),
		"retrieval_empty":     metrics.RetrievalEmpty.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics renders metrics in a stable key order for the server's
// metrics hook.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"download_requests", "download_failures",
		"caption_fetches", "transcript_requests", "whisper_runs",
		"summary_requests",
		"llm_calls", "llm_errors",
		"embedding_calls", "embedding_errors",
		"questions", "retrieval_empty",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrDownload()        { metrics.DownloadRequests.Add(1) }
func IncrDownloadFailure() { metrics.DownloadFailures.Add(1) }
func IncrCaptionFetch()    { metrics.CaptionFetches.Add(1) }
func IncrTranscript()      { metrics.TranscriptRequests.Add(1) }
func IncrWhisper()         { metrics.WhisperRuns.Add(1) }
func IncrSummary()         { metrics.SummaryRequests.Add(1) }
func IncrLLMCall()         { metrics.LLMCalls.Add(1) }
func IncrLLMError()        { metrics.LLMErrors.Add(1) }
func IncrEmbedding()       { metrics.EmbeddingCalls.Add(1) }
func IncrEmbeddingError()  { metrics.EmbeddingErrors.Add(1) }
func IncrQuestion()        { metrics.Questions.Add(1) }
func IncrRetrievalEmpty()  { metrics.RetrievalEmpty.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
