package vidserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
)

// CleanupInput is the input for cleanup.
type CleanupInput struct {
	VideoID string `json:"video_id,omitempty"` // omit with all=true to remove everything
	All     bool   `json:"all,omitempty"`
}

// CleanupOutput is the output for cleanup.
type CleanupOutput struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

func registerCleanup(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "cleanup",
		Description: "Remove stored artifacts (audio, captions, transcript) and the vector index for one video, or for all videos with all=true. Sessions are not touched.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CleanupInput) (*mcp.CallToolResult, CleanupOutput, error) {
		switch {
		case input.All:
			n, err := runner.CleanupAll(ctx)
			if err != nil {
				return nil, CleanupOutput{}, err
			}
			return nil, CleanupOutput{
				Removed: n,
				Message: fmt.Sprintf("Removed artifacts and indexes for %d videos.", n),
			}, nil
		case input.VideoID != "":
			if err := runner.Cleanup(ctx, input.VideoID); err != nil {
				return nil, CleanupOutput{}, err
			}
			return nil, CleanupOutput{
				Removed: 1,
				Message: fmt.Sprintf("Removed artifacts and index for %s.", input.VideoID),
			}, nil
		default:
			return nil, CleanupOutput{}, fmt.Errorf("video_id or all=true is required")
		}
	})
}
