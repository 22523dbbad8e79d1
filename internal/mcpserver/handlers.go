package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *GuardianClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *GuardianClient) *Handlers {
	return &Handlers{client: client}
}

// HandleProcessUtterance resolves one utterance.
func (h *Handlers) HandleProcessUtterance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	raw, err := h.client.ProcessUtterance(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to process utterance: %v", err)), nil
	}

	out, err := formatVoiceResponse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}

	return mcp.NewToolResultText(out), nil
}

// HandleExecuteTransfer settles a confirmed transfer.
func (h *Handlers) HandleExecuteTransfer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amount := req.GetFloat("amount", 0)
	recipient := req.GetString("recipient", "")
	if amount <= 0 {
		return mcp.NewToolResultError("amount must be positive"), nil
	}
	if recipient == "" {
		return mcp.NewToolResultError("recipient is required"), nil
	}

	raw, err := h.client.ExecuteTransfer(ctx, amount, recipient)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Transfer execution failed: %v", err)), nil
	}

	var result struct {
		Status       string   `json:"status"`
		ResponseText string   `json:"response_text"`
		NewBalance   *float64 `json:"new_balance"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse result: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Status: %s\n", result.Status)
	sb.WriteString(result.ResponseText)
	if result.NewBalance != nil {
		fmt.Fprintf(&sb, "\nNew balance: $%.2f", *result.NewBalance)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleCheckBalance asks Guardian for the current balance through the same
// resolution path a voice client would use.
func (h *Handlers) HandleCheckBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ProcessUtterance(ctx, "what is my balance")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check balance: %v", err)), nil
	}

	out, err := formatVoiceResponse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// HandleQueryAudit reads the audit trail.
func (h *Handlers) HandleQueryAudit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	actor := req.GetString("actor", "")
	limit := req.GetInt("limit", 20)

	raw, err := h.client.QueryAudit(ctx, status, actor, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Audit query failed: %v", err)), nil
	}

	out, err := formatAuditEntries(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse audit entries: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// --- Formatters ---

func formatVoiceResponse(raw json.RawMessage) (string, error) {
	var resp struct {
		ResponseText   string   `json:"response_text"`
		Intent         string   `json:"intent"`
		State          string   `json:"state"`
		ProactiveAlert *string  `json:"proactive_alert"`
		Amount         *float64 `json:"amount"`
		Recipient      *string  `json:"recipient"`
		SecurityCheck  *struct {
			IsSafe    bool   `json:"is_safe"`
			Prompt    string `json:"prompt"`
			RiskScore string `json:"risk_score"`
		} `json:"security_check"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Intent: %s (%s)\n", resp.Intent, resp.State)
	if resp.ResponseText != "" {
		sb.WriteString(resp.ResponseText)
		sb.WriteString("\n")
	}
	if resp.Amount != nil && resp.Recipient != nil {
		fmt.Fprintf(&sb, "Transfer: $%.2f to %s\n", *resp.Amount, *resp.Recipient)
	}
	if sc := resp.SecurityCheck; sc != nil {
		if sc.IsSafe {
			sb.WriteString("Verdict: SAFE\n")
		} else {
			sb.WriteString("Verdict: NOT SAFE\n")
		}
		if sc.RiskScore != "" {
			fmt.Fprintf(&sb, "Risk score: %s\n", sc.RiskScore)
		}
		sb.WriteString(sc.Prompt)
		sb.WriteString("\n")
	}
	if resp.ProactiveAlert != nil {
		fmt.Fprintf(&sb, "Advisory: %s\n", *resp.ProactiveAlert)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatAuditEntries(raw json.RawMessage) (string, error) {
	var resp struct {
		Entries []struct {
			Actor     string `json:"actor"`
			Intent    string `json:"intent"`
			Status    string `json:"status"`
			Detail    string `json:"detail"`
			CreatedAt string `json:"createdAt"`
		} `json:"entries"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if resp.Count == 0 {
		return "No audit entries matched.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d audit entries (newest first):\n", resp.Count)
	for _, e := range resp.Entries {
		fmt.Fprintf(&sb, "- [%s] %s | %s | %s", e.CreatedAt, e.Actor, e.Intent, e.Status)
		if e.Detail != "" {
			fmt.Fprintf(&sb, " | %s", e.Detail)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
