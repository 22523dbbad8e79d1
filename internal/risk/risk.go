// Package risk evaluates proposed transfers against balance sufficiency,
// per-recipient anomaly thresholds, and temporal risk factors.
//
// The evaluator renders a verdict only — it never moves funds. Execution
// is a separate, explicitly triggered step owned by the orchestrator.
package risk

import (
	"time"
)

// VerdictCode classifies the authorization decision.
type VerdictCode string

const (
	// CodeProceed: low risk, proceed after the standard confirmation phrase.
	CodeProceed VerdictCode = "proceed"
	// CodeChallenge: high risk, requires the explicit high-risk phrase.
	CodeChallenge VerdictCode = "challenge"
	// CodeInsufficientFunds: blocked outright, no score computed.
	CodeInsufficientFunds VerdictCode = "insufficient_funds"
	// CodeContextUnavailable: the account context could not be read.
	CodeContextUnavailable VerdictCode = "context_unavailable"
)

// Verdict is the authorization decision for one proposed transfer.
// Score is nil when the insufficient-funds gate short-circuits scoring and
// for context failures. Message text is rendered at the boundary from
// these structured fields, not inside the evaluator.
type Verdict struct {
	Safe        bool        `json:"safe"`
	Code        VerdictCode `json:"code"`
	Score       *float64    `json:"score,omitempty"`
	Amount      float64     `json:"amount"`
	Recipient   string      `json:"recipient"`
	SelfDeposit bool        `json:"selfDeposit"`
}

// Scoring constants. The anomaly factor scales with how far the amount
// exceeds the recipient's threshold; the off-hours factor is flat.
const (
	anomalyWeight   = 25.0
	offHoursPenalty = 15.0
	maxScore        = 100.0

	offHoursStart = 22 // inclusive
	offHoursEnd   = 6  // exclusive
)

// inOffHours reports whether the hour falls in the [22:00, 06:00) window,
// wrapping midnight.
func inOffHours(at time.Time) bool {
	h := at.Hour()
	return h >= offHoursStart || h < offHoursEnd
}

// score computes the clamped risk score for an outbound transfer.
func score(amount, threshold float64, at time.Time) float64 {
	s := 0.0
	if amount > threshold {
		s += (amount / threshold) * anomalyWeight
	}
	if inOffHours(at) {
		s += offHoursPenalty
	}
	if s > maxScore {
		s = maxScore
	}
	if s < 0 {
		s = 0
	}
	return s
}
