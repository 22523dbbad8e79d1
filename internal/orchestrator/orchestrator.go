// Package orchestrator owns the per-request control flow: utterance in,
// structured response out. It sequences the intent resolver, the risk
// evaluator, and the settlement call, and is the only component that
// talks to all of them.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mbd888/guardian/internal/account"
	"github.com/mbd888/guardian/internal/audit"
	"github.com/mbd888/guardian/internal/fabric"
	"github.com/mbd888/guardian/internal/logging"
	"github.com/mbd888/guardian/internal/nlu"
	"github.com/mbd888/guardian/internal/risk"
	"github.com/mbd888/guardian/internal/syncutil"
	"github.com/mbd888/guardian/internal/traces"
)

// State is the orchestration state reported with each response.
type State string

const (
	StateReceived             State = "RECEIVED"
	StateIntentResolved       State = "INTENT_RESOLVED"
	StateAwaitingEntities     State = "AWAITING_ENTITIES"
	StateRiskEvaluated        State = "RISK_EVALUATED"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateExecuting            State = "EXECUTING"
	StateSettled              State = "SETTLED"
	StateSettlementFailed     State = "SETTLEMENT_FAILED"
)

// SecurityCheck is the rendered risk verdict attached to transfer responses.
type SecurityCheck struct {
	IsSafe    bool   `json:"is_safe"`
	Prompt    string `json:"prompt"`
	RiskScore string `json:"risk_score,omitempty"`
}

// Response is the structured answer to one processed utterance.
type Response struct {
	ResponseText   string         `json:"response_text,omitempty"`
	Intent         string         `json:"intent"`
	State          State          `json:"state"`
	ProactiveAlert *string        `json:"proactive_alert,omitempty"`
	Amount         *float64       `json:"amount,omitempty"`
	Recipient      *string        `json:"recipient,omitempty"`
	SecurityCheck  *SecurityCheck `json:"security_check,omitempty"`
}

// ExecuteResult is the outcome of an explicitly confirmed settlement.
// Actor is internal routing metadata for the event stream, not part of
// the response body.
type ExecuteResult struct {
	Status       string   `json:"status"`
	ResponseText string   `json:"response_text"`
	State        State    `json:"state"`
	NewBalance   *float64 `json:"new_balance,omitempty"`
	Actor        string   `json:"-"`
}

// Settler delegates fund movement to the integration fabric.
type Settler interface {
	ExecuteTransfer(ctx context.Context, req fabric.TransferRequest) *fabric.TransferResult
}

// Service sequences resolution, evaluation, and settlement.
type Service struct {
	store           account.Store
	resolver        *nlu.Resolver
	evaluator       *risk.Evaluator
	settler         Settler
	trail           audit.Trail
	locks           *syncutil.KeyMutex
	clock           func() time.Time
	lowBalanceFloor float64
	logger          *slog.Logger
}

// New creates the orchestrator. clock may be nil; it defaults to time.Now
// and exists so the off-hours rule and record timestamps are testable.
func New(store account.Store, resolver *nlu.Resolver, evaluator *risk.Evaluator, settler Settler, trail audit.Trail, lowBalanceFloor float64, clock func() time.Time, logger *slog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:           store,
		resolver:        resolver,
		evaluator:       evaluator,
		settler:         settler,
		trail:           trail,
		locks:           syncutil.NewKeyMutex(),
		clock:           clock,
		lowBalanceFloor: lowBalanceFloor,
		logger:          logger,
	}
}

// Process resolves one utterance to a terminal response. Transfer intents
// with complete entities are risk-evaluated and returned as
// AWAITING_CONFIRMATION; this method never settles anything.
func (s *Service) Process(ctx context.Context, utterance string) *Response {
	ctx, span := traces.StartSpan(ctx, "orchestrator.Process")
	defer span.End()

	if strings.TrimSpace(utterance) == "" {
		return &Response{
			ResponseText: "I didn't hear anything. Please try again.",
			Intent:       string(nlu.IntentUnknown),
			State:        StateReceived,
		}
	}

	actx, err := s.store.ReadContext(ctx)
	if err != nil {
		s.logger.Error("failed to read account context", "error", err)
		return &Response{
			ResponseText: "Error: Could not load user data.",
			Intent:       string(nlu.IntentUnknown),
			State:        StateReceived,
		}
	}

	ctx = logging.WithActor(ctx, actx.Profile.ID)

	alert := s.lowBalanceAlert(actx.Profile.Balance)
	res := s.resolver.Resolve(ctx, utterance, actx)
	span.SetAttributes(traces.Intent(string(res.Intent)))

	switch res.Intent {
	case nlu.IntentCheckBalance:
		return s.respond(balanceText(actx), res.Intent, alert)
	case nlu.IntentAccountDetails:
		return s.respond(detailsText(actx), res.Intent, alert)
	case nlu.IntentAccountStatement:
		return s.respond(statementText(actx), res.Intent, alert)
	case nlu.IntentViewHistory:
		return s.respond(historyText(actx), res.Intent, alert)
	case nlu.IntentLoanInquiry:
		return s.respond(loanText(actx), res.Intent, alert)
	case nlu.IntentSetReminder:
		return s.respond(s.setReminder(ctx, utterance), res.Intent, alert)
	case nlu.IntentTransferFunds:
		return s.processTransfer(ctx, res, actx, alert)
	default:
		return s.respond("I can only help with core banking tasks. What would you like to do?", nlu.IntentUnknown, alert)
	}
}

func (s *Service) processTransfer(ctx context.Context, res nlu.Resolution, actx *account.Context, alert *string) *Response {
	if res.MissingEntities() {
		return &Response{
			ResponseText:   "To transfer funds, please tell me the amount and the recipient name.",
			Intent:         string(res.Intent),
			State:          StateAwaitingEntities,
			ProactiveAlert: alert,
			Amount:         res.Amount,
			Recipient:      res.Recipient,
		}
	}

	verdict := s.evaluator.Evaluate(ctx, actx.Profile.ID, *res.Amount, *res.Recipient, actx.Profile.Balance, actx, s.clock())

	return &Response{
		Intent:         string(res.Intent),
		State:          StateAwaitingConfirmation,
		ProactiveAlert: alert,
		Amount:         res.Amount,
		Recipient:      res.Recipient,
		SecurityCheck:  renderSecurityCheck(verdict),
	}
}

// Execute settles a previously evaluated transfer. It serializes per actor
// so two concurrent transfers cannot both pass the funds check against a
// stale balance, re-reads the balance under the lock, and re-applies the
// insufficient-funds gate before delegating to the fabric.
func (s *Service) Execute(ctx context.Context, amount float64, recipient string) *ExecuteResult {
	ctx, span := traces.StartSpan(ctx, "orchestrator.Execute",
		traces.Amount(amount), traces.Recipient(recipient))
	defer span.End()

	if amount <= 0 || recipient == "" {
		return &ExecuteResult{
			Status:       "failure",
			ResponseText: "Transfer failed: amount and recipient are required.",
			State:        StateSettlementFailed,
		}
	}

	actx, err := s.store.ReadContext(ctx)
	if err != nil {
		s.logger.Error("failed to read account context", "error", err)
		return &ExecuteResult{
			Status:       "failure",
			ResponseText: "Transfer failed: could not load account data.",
			State:        StateSettlementFailed,
		}
	}
	actor := actx.Profile.ID
	ctx = logging.WithActor(ctx, actor)

	unlock, err := s.locks.Lock(ctx, actor)
	if err != nil {
		return &ExecuteResult{
			Status:       "failure",
			ResponseText: "Transfer failed: request cancelled.",
			State:        StateSettlementFailed,
			Actor:        actor,
		}
	}
	defer unlock()

	// Fresh read under the lock: the balance may have moved since evaluation.
	actx, err = s.store.ReadContext(ctx)
	if err != nil {
		s.logger.Error("failed to re-read account context", "error", err)
		return s.executionFailure(ctx, actor, "could not load account data")
	}

	selfDeposit := recipient == actx.Profile.Name
	if !selfDeposit && amount > actx.Profile.Balance {
		return s.executionFailure(ctx, actor, "insufficient funds at execution time")
	}

	result := s.settler.ExecuteTransfer(ctx, fabric.TransferRequest{
		UserID:    actor,
		Amount:    amount,
		Recipient: recipient,
	})
	if !result.Succeeded() {
		reason := result.Message
		if reason == "" {
			reason = "Unknown error."
		}
		return s.executionFailure(ctx, actor, reason)
	}

	newBalance := actx.Profile.Balance
	if selfDeposit {
		newBalance += amount
	} else {
		newBalance -= amount
	}
	if result.NewBalance != nil {
		newBalance = *result.NewBalance
	}

	txType := account.TypeDebit
	if selfDeposit {
		txType = account.TypeCredit
	}
	if err := s.store.AppendTransaction(ctx, &account.TransactionRecord{
		Recipient: recipient,
		Amount:    amount,
		Type:      txType,
		CreatedAt: s.clock(),
	}); err != nil {
		s.logger.Error("failed to append transaction record", "error", err)
	}
	if err := s.store.SetBalance(ctx, newBalance); err != nil {
		s.logger.Error("failed to persist new balance", "error", err)
	}

	s.recordExecution(ctx, actor, audit.StatusExecSuccess, executionDetail(amount, recipient))

	return &ExecuteResult{
		Status:       "success",
		ResponseText: settledText(amount, recipient, newBalance),
		State:        StateSettled,
		NewBalance:   &newBalance,
		Actor:        actor,
	}
}

func (s *Service) executionFailure(ctx context.Context, actor, reason string) *ExecuteResult {
	s.recordExecution(ctx, actor, audit.StatusExecFailure, reason)
	return &ExecuteResult{
		Status:       "failure",
		ResponseText: "Transfer failed: " + reason,
		State:        StateSettlementFailed,
		Actor:        actor,
	}
}

func (s *Service) recordExecution(ctx context.Context, actor string, status audit.Status, detail string) {
	if err := s.trail.Record(ctx, &audit.Entry{
		Actor:  actor,
		Intent: string(nlu.IntentTransferFunds),
		Status: status,
		Detail: detail,
	}); err != nil {
		s.logger.Error("failed to record execution audit entry", "error", err)
	}
}

func (s *Service) setReminder(ctx context.Context, utterance string) string {
	if !strings.Contains(strings.ToLower(utterance), "rent") {
		return "I can set a reminder for a payment or alert. What payment would you like to be reminded about?"
	}
	due := nextFirstOfMonth(s.clock())
	if err := s.store.AppendReminder(ctx, &account.Reminder{
		Category:    "Payment",
		Description: "Rent Payment Reminder Set",
		DueDate:     due,
	}); err != nil {
		s.logger.Error("failed to append reminder", "error", err)
		return "I could not save that reminder. Please try again."
	}
	return "I've set a reminder to pay your rent on the first of next month."
}

func (s *Service) respond(text string, intent nlu.Intent, alert *string) *Response {
	return &Response{
		ResponseText:   text,
		Intent:         string(intent),
		State:          StateIntentResolved,
		ProactiveAlert: alert,
	}
}

func (s *Service) lowBalanceAlert(balance float64) *string {
	if balance >= s.lowBalanceFloor {
		return nil
	}
	msg := lowBalanceText(balance)
	return &msg
}

// nextFirstOfMonth returns midnight on the first day of the month after now.
func nextFirstOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
}
