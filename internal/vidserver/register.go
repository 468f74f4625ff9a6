// Package vidserver exposes the video QA pipeline as MCP tools.
package vidserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
)

// RegisterTools registers all video QA tools on the given MCP server:
// process_video, video_status, video_summary, ask_video, session and
// cleanup management.
func RegisterTools(server *mcp.Server, runner *pipeline.Runner) {
	registerProcessVideo(server, runner)
	registerVideoStatus(server, runner)
	registerVideoSummary(server, runner)
	registerAskVideo(server, runner)
	registerSessionsList(server, runner)
	registerSessionClear(server, runner)
	registerSessionDelete(server, runner)
	registerCleanup(server, runner)
}
