package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to a Guardian instance.
type Config struct {
	APIURL      string // Base URL, e.g. "http://localhost:8080"
	AdminSecret string // Optional; required only for query_audit
}

// GuardianClient is a pure HTTP client for the Guardian API.
type GuardianClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewGuardianClient creates a new client for the Guardian API.
func NewGuardianClient(cfg Config) *GuardianClient {
	return &GuardianClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from Guardian.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to Guardian and returns the response body.
func (c *GuardianClient) doRequest(ctx context.Context, method, path string, query url.Values, body any, admin bool) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("X-Admin-Secret", c.cfg.AdminSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// ProcessUtterance submits one utterance for intent resolution.
func (c *GuardianClient) ProcessUtterance(ctx context.Context, text string) (json.RawMessage, error) {
	body := map[string]string{"text": text}
	return c.doRequest(ctx, http.MethodPost, "/api/process_voice", nil, body, false)
}

// ExecuteTransfer settles a previously evaluated transfer.
func (c *GuardianClient) ExecuteTransfer(ctx context.Context, amount float64, recipient string) (json.RawMessage, error) {
	body := map[string]any{
		"amount":    amount,
		"recipient": recipient,
	}
	return c.doRequest(ctx, http.MethodPost, "/api/execute_transaction", nil, body, false)
}

// QueryAudit reads the audit trail (admin only).
func (c *GuardianClient) QueryAudit(ctx context.Context, status, actor string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if actor != "" {
		q.Set("actor", actor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/admin/audit", q, nil, true)
}
