package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Guardian MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolProcessUtterance = mcp.NewTool("process_utterance",
	mcp.WithDescription(
		"Send a free-text banking request to Guardian and get back the resolved "+
			"intent, extracted entities, and (for transfers) a risk verdict with a "+
			"confirmation prompt. Transfers are never executed by this tool — a "+
			"risky transfer returns a challenge that must be confirmed via "+
			"execute_transfer."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The utterance, e.g. 'send 500 to Mom' or 'what is my balance'")),
)

var ToolExecuteTransfer = mcp.NewTool("execute_transfer",
	mcp.WithDescription(
		"Execute a previously evaluated transfer. Only call this after "+
			"process_utterance returned a security check and the user uttered the "+
			"confirmation phrase it asked for. Settlement is delegated to the "+
			"banking integration fabric; a failure here is terminal and is not "+
			"retried automatically."),
	mcp.WithNumber("amount",
		mcp.Required(),
		mcp.Description("Transfer amount, exactly as evaluated")),
	mcp.WithString("recipient",
		mcp.Required(),
		mcp.Description("Recipient name, exactly as evaluated (e.g. 'Mom')")),
)

var ToolCheckBalance = mcp.NewTool("check_balance",
	mcp.WithDescription(
		"Check the account holder's current balance. Also reports the low-balance "+
			"advisory when the balance is below the configured floor."),
)

var ToolQueryAudit = mcp.NewTool("query_audit",
	mcp.WithDescription(
		"Query Guardian's append-only audit trail of intent resolutions, risk "+
			"verdicts, and settlement outcomes. Requires the admin secret to be "+
			"configured. Useful for reviewing why a transfer was blocked or "+
			"challenged."),
	mcp.WithString("status",
		mcp.Description("Filter by audit status"),
		mcp.Enum("NLU_SUCCESS", "NLU_MISSING_ENTITY", "BLOCKED", "SECURITY_CHALLENGE",
			"LOW_RISK_PASS", "EXECUTION_SUCCESS", "EXECUTION_FAILURE", "FAILED")),
	mcp.WithString("actor",
		mcp.Description("Filter by actor identifier (e.g. 'USR-1001')")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)")),
)
