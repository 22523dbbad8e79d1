package nlu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mbd888/guardian/internal/account"
	"github.com/mbd888/guardian/internal/audit"
	"github.com/mbd888/guardian/internal/metrics"
	"github.com/mbd888/guardian/internal/traces"
)

// Resolver maps utterances to intents and records one audit entry per
// terminal resolution.
type Resolver struct {
	trail  audit.Trail
	logger *slog.Logger
}

// NewResolver creates a resolver writing to the given audit trail.
func NewResolver(trail audit.Trail, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{trail: trail, logger: logger}
}

// Resolve classifies one utterance against the account context.
//
// A nil context means the store could not be read; the zero Resolution is
// returned and nothing is audited — the caller answers generically. Every
// other path produces exactly one audit entry with status NLU_SUCCESS or
// NLU_MISSING_ENTITY.
func (r *Resolver) Resolve(ctx context.Context, utterance string, actx *account.Context) Resolution {
	ctx, span := traces.StartSpan(ctx, "nlu.Resolve")
	defer span.End()

	if actx == nil {
		return Resolution{}
	}

	res := resolve(strings.ToLower(utterance), actx)
	span.SetAttributes(traces.Intent(string(res.Intent)))

	status := audit.StatusNLUSuccess
	detail := fmt.Sprintf("Input: %s", utterance)
	if res.MissingEntities() {
		status = audit.StatusNLUMissingEntity
		detail = missingDetail(res)
	}

	if err := r.trail.Record(ctx, &audit.Entry{
		Actor:  actx.Profile.ID,
		Intent: string(res.Intent),
		Status: status,
		Detail: detail,
	}); err != nil {
		r.logger.Error("failed to record resolution audit entry", "error", err)
	}
	metrics.IntentResolutionsTotal.WithLabelValues(string(res.Intent), string(status)).Inc()

	return res
}

func missingDetail(res Resolution) string {
	if res.SelfDeposit {
		return "Missing amount for top-up."
	}
	var missing []string
	if res.Amount == nil {
		missing = append(missing, "amount")
	}
	if res.Recipient == nil {
		missing = append(missing, "recipient")
	}
	return "Missing " + strings.Join(missing, " and ") + " for transfer."
}
