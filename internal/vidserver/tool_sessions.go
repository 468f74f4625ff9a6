package vidserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/engine/rag"
	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
)

// SessionsListInput is the input for sessions_list.
type SessionsListInput struct{}

// SessionsListOutput is the output for sessions_list.
type SessionsListOutput struct {
	Sessions []rag.SessionSummary `json:"sessions"`
	Total    int                  `json:"total"`
}

// SessionIDInput identifies one session for clear/delete.
type SessionIDInput struct {
	SessionID string `json:"session_id"`
}

// SessionOpOutput is the output for session clear/delete operations.
type SessionOpOutput struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func registerSessionsList(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sessions_list",
		Description: "List all QA sessions with their video binding, message count, and last activity time.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SessionsListInput) (*mcp.CallToolResult, SessionsListOutput, error) {
		sessions := runner.Sessions().List()
		return nil, SessionsListOutput{Sessions: sessions, Total: len(sessions)}, nil
	})
}

func registerSessionClear(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_clear",
		Description: "Clear a session's conversation history while keeping the session and its video binding, so the conversation can restart fresh.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SessionIDInput) (*mcp.CallToolResult, SessionOpOutput, error) {
		if input.SessionID == "" {
			return nil, SessionOpOutput{}, fmt.Errorf("session_id is required")
		}
		if err := runner.Sessions().Clear(input.SessionID); err != nil {
			return nil, SessionOpOutput{}, err
		}
		return nil, SessionOpOutput{
			SessionID: input.SessionID,
			Message:   "Session history cleared.",
		}, nil
	})
}

func registerSessionDelete(server *mcp.Server, runner *pipeline.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_delete",
		Description: "Delete a QA session entirely, including its history and video binding.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SessionIDInput) (*mcp.CallToolResult, SessionOpOutput, error) {
		if input.SessionID == "" {
			return nil, SessionOpOutput{}, fmt.Errorf("session_id is required")
		}
		if err := runner.Sessions().Delete(input.SessionID); err != nil {
			return nil, SessionOpOutput{}, err
		}
		return nil, SessionOpOutput{
			SessionID: input.SessionID,
			Message:   "Session deleted.",
		}, nil
	})
}
