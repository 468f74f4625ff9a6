package vidserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
)

// AskVideoInput is the input for ask_video.
type AskVideoInput struct {
	VideoID        string   `json:"video_id"`
	Question       string   `json:"question"`
	SessionID      string   `json:"session_id,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"` // override relevance cutoff, 0..1
	TopK           int      `json:"top_k,omitempty"`           // override how many chunks to retrieve
}

// AskSource is one transcript chunk that backed the answer.
type AskSource struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// AskVideoOutput is the output for ask_video.
type AskVideoOutput struct {
	Status    string      `json:"status"` // ok | not_ready
	Answer    string      `json:"answer,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	Sources   []AskSource `json:"sources,omitempty"`
	Degraded  bool        `json:"degraded,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func registerAskVideo(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_video",
		Description: "Ask a question about a processed video. Retrieves the most relevant transcript chunks and answers from them, keeping conversation history per session_id. Pass the session_id back to continue a conversation. Returns status not_ready if the video has not been processed yet.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input AskVideoInput) (*mcp.CallToolResult, AskVideoOutput, error) {
		if input.VideoID == "" || input.Question == "" {
			return nil, AskVideoOutput{}, fmt.Errorf("video_id and question are required")
		}
		if input.ScoreThreshold != nil && (*input.ScoreThreshold < 0 || *input.ScoreThreshold > 1) {
			return nil, AskVideoOutput{}, fmt.Errorf("score_threshold must be in [0, 1]")
		}
		if input.TopK < 0 {
			return nil, AskVideoOutput{}, fmt.Errorf("top_k must not be negative")
		}

		ans, err := runner.Ask(ctx, input.VideoID, input.Question, input.SessionID, input.ScoreThreshold, input.TopK)
		if err != nil {
			if errors.Is(err, engine.ErrNotReady) {
				return nil, AskVideoOutput{
					Status:  "not_ready",
					Message: "Video not processed yet. Run process_video first and wait for completion.",
				}, nil
			}
			return nil, AskVideoOutput{}, err
		}

		sources := make([]AskSource, 0, len(ans.Docs))
		for _, d := range ans.Docs {
			sources = append(sources, AskSource{Content: d.Chunk.Content, Score: d.Score})
		}
		return nil, AskVideoOutput{
			Status:    "ok",
			Answer:    ans.Answer,
			SessionID: ans.SessionID,
			Sources:   sources,
			Degraded:  ans.Degraded,
		}, nil
	})
}
