package rag

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Retriever runs top-k retrieval and drops results under the score
// threshold. An empty result is a valid outcome, not an error; the
// answer chain falls back to the full transcript.
type Retriever struct {
	handle    Handle
	K         int
	Threshold float64
}

// NewRetriever wraps an index handle with config defaults. A non-nil
// threshold or positive topK overrides the configured values for this
// retriever.
func NewRetriever(handle Handle, threshold *float64, topK int) *Retriever {
	k := topK
	if k <= 0 {
		k = engine.Cfg.RetrieveK
	}
	if k <= 0 {
		k = 4
	}
	th := engine.Cfg.ScoreThreshold
	if threshold != nil {
		th = *threshold
	}
	return &Retriever{handle: handle, K: k, Threshold: th}
}

// Retrieve returns the relevant chunks for a question, best first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]ScoredChunk, error) {
	results, err := r.handle.Query(ctx, question, r.K)
	if err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, sc := range results {
		if sc.Score >= r.Threshold {
			filtered = append(filtered, sc)
		}
	}
	if len(filtered) == 0 {
		engine.IncrRetrievalEmpty()
		slog.Debug("retrieval empty after threshold",
			slog.Int("raw", len(results)),
			slog.Float64("threshold", r.Threshold))
	}
	return filtered, nil
}
