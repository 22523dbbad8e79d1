// Package fabric is the HTTP client for the external integration fabric,
// the service that performs actual fund settlement. Guardian decides
// whether a transfer may proceed; the fabric moves the money.
package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mbd888/guardian/internal/circuitbreaker"
	"github.com/mbd888/guardian/internal/metrics"
	"github.com/mbd888/guardian/internal/traces"
)

const (
	executePath     = "/v1/execute_transfer"
	maxResponseSize = 1 * 1024 * 1024 // 1MB

	// Transfer result statuses as returned by the fabric. A transport or
	// protocol failure on our side is reported as StatusError.
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// TransferRequest is the settlement instruction sent to the fabric.
type TransferRequest struct {
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	Recipient string  `json:"recipient"`
}

// TransferResult is the fabric's settlement outcome. NewBalance is set
// only when the fabric reports one.
type TransferResult struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	NewBalance *float64 `json:"new_balance,omitempty"`
}

// Succeeded reports whether the fabric settled the transfer.
func (r *TransferResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Client calls the integration fabric over HTTP. Connectivity failures
// never surface as errors: they degrade to a StatusError result so the
// caller always has a structured outcome to audit and render.
type Client struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

// NewClient creates a fabric client. Pass timeout=0 for the 10s default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New("fabric", 5, 30*time.Second),
		logger:  logger,
	}
}

// ExecuteTransfer posts the settlement instruction to the fabric and
// returns its outcome. Any transport, decode, or upstream 5xx failure is
// collapsed into a StatusError connectivity result.
func (c *Client) ExecuteTransfer(ctx context.Context, req TransferRequest) *TransferResult {
	ctx, span := traces.StartSpan(ctx, "fabric.ExecuteTransfer",
		traces.Amount(req.Amount), traces.Recipient(req.Recipient))
	defer span.End()

	start := time.Now()
	result := c.execute(ctx, req)
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	metrics.SettlementsTotal.WithLabelValues(result.Status).Inc()
	return result
}

func (c *Client) execute(ctx context.Context, req TransferRequest) *TransferResult {
	if !c.breaker.Allow() {
		c.logger.Warn("fabric circuit open, rejecting settlement",
			"recipient", req.Recipient, "amount", req.Amount)
		return connectivityError()
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Error("failed to marshal transfer request", "error", err)
		return connectivityError()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+executePath, bytes.NewReader(body))
	if err != nil {
		c.breaker.RecordFailure()
		return connectivityError()
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Error("fabric request failed", "error", err)
		return connectivityError()
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
		c.logger.Error("fabric returned server error", "status", resp.StatusCode)
		return connectivityError()
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.breaker.RecordFailure()
		return connectivityError()
	}

	var result TransferResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.breaker.RecordFailure()
		c.logger.Error("failed to decode fabric response", "error", err)
		return connectivityError()
	}

	switch result.Status {
	case StatusSuccess, StatusFailed, StatusError:
	default:
		c.breaker.RecordFailure()
		c.logger.Error("fabric returned unknown status", "status", result.Status)
		return connectivityError()
	}

	c.breaker.RecordSuccess()
	return &result
}

// Healthy reports whether the fabric circuit is closed.
func (c *Client) Healthy() bool {
	return c.breaker.State() != circuitbreaker.StateOpen
}

func connectivityError() *TransferResult {
	return &TransferResult{
		Status:  StatusError,
		Message: "connectivity error",
	}
}

// Ping checks fabric reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fabric unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
