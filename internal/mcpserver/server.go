package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all Guardian tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("guardian", "1.0.0")
	client := NewGuardianClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolProcessUtterance, h.HandleProcessUtterance)
	s.AddTool(ToolExecuteTransfer, h.HandleExecuteTransfer)
	s.AddTool(ToolCheckBalance, h.HandleCheckBalance)
	s.AddTool(ToolQueryAudit, h.HandleQueryAudit)

	return s
}
