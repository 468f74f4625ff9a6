package vidserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
)

// VideoStatusInput is the input for video_status.
type VideoStatusInput struct {
	JobID string `json:"job_id"`
}

// VideoStatusOutput is the output for video_status.
type VideoStatusOutput struct {
	JobID    string          `json:"job_id"`
	Status   string          `json:"status"`
	Stages   engine.StageSet `json:"stages"`
	VideoID  string          `json:"video_id,omitempty"`
	Title    string          `json:"title,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// VideoSummaryInput is the input for video_summary.
type VideoSummaryInput struct {
	JobID string `json:"job_id"`
}

// VideoSummaryOutput is the output for video_summary.
type VideoSummaryOutput struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary"`
}

func registerVideoStatus(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_status",
		Description: "Check the progress of a video processing job: overall status (processing, completed, failed) and per-stage state for download, transcription, summarization, and vectorization.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoStatusInput) (*mcp.CallToolResult, VideoStatusOutput, error) {
		if input.JobID == "" {
			return nil, VideoStatusOutput{}, fmt.Errorf("job_id is required")
		}
		job, ok := runner.GetJob(input.JobID)
		if !ok {
			return nil, VideoStatusOutput{}, fmt.Errorf("unknown job_id %q", input.JobID)
		}
		return nil, VideoStatusOutput{
			JobID:    job.ID,
			Status:   string(job.Status),
			Stages:   job.Stages,
			VideoID:  job.VideoID,
			Title:    job.Title,
			Duration: job.Duration,
			Error:    job.Error,
		}, nil
	})
}

func registerVideoSummary(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_summary",
		Description: "Get the summary of a processed video. The job must be completed; use video_status to check first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoSummaryInput) (*mcp.CallToolResult, VideoSummaryOutput, error) {
		if input.JobID == "" {
			return nil, VideoSummaryOutput{}, fmt.Errorf("job_id is required")
		}
		job, ok := runner.GetJob(input.JobID)
		if !ok {
			return nil, VideoSummaryOutput{}, fmt.Errorf("unknown job_id %q", input.JobID)
		}
		if job.Status != engine.JobCompleted {
			return nil, VideoSummaryOutput{}, fmt.Errorf("job %s is %s, summary available once completed", job.ID, job.Status)
		}
		return nil, VideoSummaryOutput{
			VideoID: job.VideoID,
			Title:   job.Title,
			Summary: job.Summary,
		}, nil
	})
}
