package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mbd888/guardian/internal/account"
	"github.com/mbd888/guardian/internal/audit"
	"github.com/mbd888/guardian/internal/metrics"
	"github.com/mbd888/guardian/internal/traces"
)

// Evaluator renders authorization verdicts for proposed transfers.
type Evaluator struct {
	trail              audit.Trail
	challengeThreshold float64
	defaultAnomaly     float64
	logger             *slog.Logger
}

// NewEvaluator creates an evaluator with the given challenge threshold
// (score above which a transfer is challenged) and the anomaly baseline
// used for recipients without a configured threshold.
func NewEvaluator(trail audit.Trail, challengeThreshold, defaultAnomaly float64, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		trail:              trail,
		challengeThreshold: challengeThreshold,
		defaultAnomaly:     defaultAnomaly,
		logger:             logger,
	}
}

// Evaluate decides whether a proposed transfer may proceed.
//
// The evaluation timestamp is injected so the off-hours rule is
// deterministically testable. Gate order is part of the contract: the
// insufficient-funds check dominates scoring and short-circuits it.
// Every call records exactly one audit entry.
func (e *Evaluator) Evaluate(ctx context.Context, actor string, amount float64, recipient string, balance float64, actx *account.Context, at time.Time) *Verdict {
	ctx, span := traces.StartSpan(ctx, "risk.Evaluate", traces.Amount(amount), traces.Recipient(recipient))
	defer span.End()

	if actx == nil {
		e.record(ctx, actor, audit.StatusFailed, "Internal data error.")
		return &Verdict{
			Safe:      false,
			Code:      CodeContextUnavailable,
			Amount:    amount,
			Recipient: recipient,
		}
	}

	selfDeposit := recipient == actx.Profile.Name

	if !selfDeposit && amount > balance {
		span.SetAttributes(traces.Verdict("blocked"))
		e.record(ctx, actor, audit.StatusBlocked, fmt.Sprintf("Insufficient funds: %.2f", amount))
		metrics.RiskVerdictsTotal.WithLabelValues("blocked").Inc()
		return &Verdict{
			Safe:      false,
			Code:      CodeInsufficientFunds,
			Amount:    amount,
			Recipient: recipient,
		}
	}

	s := 0.0
	if !selfDeposit {
		threshold, ok := actx.Threshold(recipient)
		if !ok {
			threshold = e.defaultAnomaly
		}
		s = score(amount, threshold, at)
	}
	metrics.RiskScore.Observe(s)

	v := &Verdict{
		Score:       &s,
		Amount:      amount,
		Recipient:   recipient,
		SelfDeposit: selfDeposit,
	}

	if s > e.challengeThreshold {
		span.SetAttributes(traces.Verdict("challenge"))
		// The audited score is precise; rendering rounds at the boundary.
		e.record(ctx, actor, audit.StatusChallenge, fmt.Sprintf("Risk Score: %.2f%%", s))
		metrics.RiskVerdictsTotal.WithLabelValues("challenge").Inc()
		v.Safe = false
		v.Code = CodeChallenge
		return v
	}

	span.SetAttributes(traces.Verdict("pass"))
	e.record(ctx, actor, audit.StatusLowRiskPass, fmt.Sprintf("Risk Score: %.2f%%", s))
	metrics.RiskVerdictsTotal.WithLabelValues("pass").Inc()
	v.Safe = true
	v.Code = CodeProceed
	return v
}

func (e *Evaluator) record(ctx context.Context, actor string, status audit.Status, detail string) {
	if err := e.trail.Record(ctx, &audit.Entry{
		Actor:  actor,
		Intent: "Transfer_Funds",
		Status: status,
		Detail: detail,
	}); err != nil {
		e.logger.Error("failed to record risk audit entry", "error", err)
	}
}
