package vidserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
	"github.com/anatolykoptev/go_vidqa/internal/engine/summarize"
	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
)

// ProcessVideoInput is the input for process_video.
type ProcessVideoInput struct {
	URL          string `json:"url"`
	SummaryStyle string `json:"summary_style,omitempty"` // concise | bullet_points | detailed
}

// ProcessVideoOutput is the output for process_video.
type ProcessVideoOutput struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func registerProcessVideo(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_video",
		Description: "Start processing a YouTube video: download audio and captions, build the transcript, summarize it, and index it for question answering. Returns a job_id immediately; poll video_status to track progress. Accepts watch, youtu.be, embed, shorts, and live URLs or a bare 11-character video id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ProcessVideoInput) (*mcp.CallToolResult, ProcessVideoOutput, error) {
		if input.URL == "" {
			return nil, ProcessVideoOutput{}, fmt.Errorf("url is required")
		}

		jobID, err := runner.StartProcessing(input.URL, summarize.Style(input.SummaryStyle))
		if err != nil {
			if errors.Is(err, engine.ErrInvalidIdentifier) {
				return nil, ProcessVideoOutput{}, fmt.Errorf("no video id found in %q", input.URL)
			}
			return nil, ProcessVideoOutput{}, err
		}

		return nil, ProcessVideoOutput{
			JobID:   jobID,
			Status:  string(engine.JobProcessing),
			Message: "Processing started. Poll video_status with this job_id.",
		}, nil
	})
}
