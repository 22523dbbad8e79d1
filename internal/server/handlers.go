package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/guardian/internal/audit"
	"github.com/mbd888/guardian/internal/health"
	"github.com/mbd888/guardian/internal/logging"
	"github.com/mbd888/guardian/internal/pagination"
	"github.com/mbd888/guardian/internal/validation"
)

// -----------------------------------------------------------------------------
// Voice assistant API
// -----------------------------------------------------------------------------

type processVoiceRequest struct {
	Text string `json:"text"`
}

func (s *Server) processVoiceHandler(c *gin.Context) {
	var req processVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be JSON with a 'text' field",
		})
		return
	}

	utterance := validation.SanitizeUtterance(req.Text)
	if len(utterance) > validation.MaxUtteranceLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "utterance_too_long",
			"message": "Utterance exceeds the maximum length",
		})
		return
	}

	resp := s.orch.Process(c.Request.Context(), utterance)
	c.JSON(http.StatusOK, resp)
}

type executeTransactionRequest struct {
	Amount    float64 `json:"amount"`
	Recipient string  `json:"recipient"`
}

func (s *Server) executeTransactionHandler(c *gin.Context) {
	var req executeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be JSON with 'amount' and 'recipient'",
		})
		return
	}

	if errs := validation.Validate(
		validation.Required("recipient", req.Recipient),
		validation.PositiveAmount("amount", req.Amount),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": errs.Error(),
		})
		return
	}

	result := s.orch.Execute(c.Request.Context(), req.Amount, req.Recipient)
	s.realtimeHub.BroadcastSettlement(result.Actor, req.Amount, req.Recipient, result.Status)

	c.JSON(http.StatusOK, result)
}

// -----------------------------------------------------------------------------
// Health & info
// -----------------------------------------------------------------------------

// HealthResponse is the aggregate health report.
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, checks := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "guardian",
		"description": "Conversational banking guardrail: intent resolution, risk evaluation, settlement delegation",
		"endpoints": gin.H{
			"process_voice":       "POST /api/process_voice",
			"execute_transaction": "POST /api/execute_transaction",
			"realtime":            "GET /ws",
			"health":              "GET /health",
			"metrics":             "GET /metrics",
		},
	})
}

// -----------------------------------------------------------------------------
// Admin
// -----------------------------------------------------------------------------

func (s *Server) auditQueryHandler(c *gin.Context) {
	actor := c.Query("actor")
	status := audit.Status(c.Query("status"))

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_cursor",
			"message": "cursor is not valid",
		})
		return
	}

	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_from",
				"message": "from must be RFC3339",
			})
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_to",
				"message": "to must be RFC3339",
			})
			return
		}
		to = t
	}

	var before *audit.Cursor
	if cursor != nil {
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_cursor",
				"message": "cursor is not valid",
			})
			return
		}
		before = &audit.Cursor{CreatedAt: cursor.CreatedAt, ID: id}
	}

	// Fetch one extra row to detect whether another page exists.
	entries, err := s.trail.Query(c.Request.Context(), audit.Filter{
		Actor:  actor,
		From:   from,
		To:     to,
		Status: status,
		Limit:  limit + 1,
		Before: before,
	})
	if err != nil {
		logging.L(c.Request.Context()).Error("audit query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Could not read the audit trail",
		})
		return
	}

	entries, next, hasMore := pagination.ComputePage(entries, limit, func(e *audit.Entry) (time.Time, string) {
		return e.CreatedAt, strconv.FormatInt(e.ID, 10)
	})

	c.JSON(http.StatusOK, gin.H{
		"entries":     entries,
		"count":       len(entries),
		"next_cursor": next,
		"has_more":    hasMore,
	})
}

func (s *Server) realtimeStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.realtimeHub.Stats())
}
