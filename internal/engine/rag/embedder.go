package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// embedBatchSize caps one API request; large transcripts produce
// hundreds of chunks.
const embedBatchSize = 128

// OpenAIEmbedder embeds through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	once   sync.Once
	client *openai.Client
	err    error
}

func NewOpenAIEmbedder() *OpenAIEmbedder {
	return &OpenAIEmbedder{}
}

func (e *OpenAIEmbedder) init() {
	if engine.Cfg.OpenAIAPIKey == "" {
		e.err = errors.New("OPENAI_API_KEY not configured, embeddings unavailable")
		return
	}
	e.client = openai.NewClient(engine.Cfg.OpenAIAPIKey)
}

// Embed returns one vector per input text, preserving order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.once.Do(e.init)
	if e.err != nil {
		return nil, e.err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	engine.IncrEmbedding()

	model := engine.Cfg.EmbeddingModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := engine.RetryDo(ctx, engine.DefaultRetryConfig, func() (openai.EmbeddingResponse, error) {
			return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: batch,
				Model: openai.EmbeddingModel(model),
			})
		})
		if err != nil {
			engine.IncrEmbeddingError()
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(resp.Data) != len(batch) {
			engine.IncrEmbeddingError()
			return nil, fmt.Errorf("embed batch at %d: got %d vectors for %d inputs", start, len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}
