package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/guardian/internal/account"
	"github.com/mbd888/guardian/internal/audit"
	"github.com/mbd888/guardian/internal/fabric"
	"github.com/mbd888/guardian/internal/nlu"
	"github.com/mbd888/guardian/internal/risk"
)

// stubSettler records settlement calls and returns a canned result.
type stubSettler struct {
	result *fabric.TransferResult
	calls  []fabric.TransferRequest
}

func (s *stubSettler) ExecuteTransfer(_ context.Context, req fabric.TransferRequest) *fabric.TransferResult {
	s.calls = append(s.calls, req)
	if s.result != nil {
		return s.result
	}
	return &fabric.TransferResult{Status: fabric.StatusSuccess, Message: "ok"}
}

// failingStore simulates an unreachable context store.
type failingStore struct{}

func (failingStore) ReadContext(context.Context) (*account.Context, error) {
	return nil, account.ErrUnavailable
}
func (failingStore) AppendTransaction(context.Context, *account.TransactionRecord) error {
	return account.ErrUnavailable
}
func (failingStore) AppendReminder(context.Context, *account.Reminder) error {
	return account.ErrUnavailable
}
func (failingStore) SetBalance(context.Context, float64) error { return account.ErrUnavailable }

var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store account.Store, settler Settler) (*Service, *audit.MemoryTrail) {
	trail := audit.NewMemoryTrail()
	resolver := nlu.NewResolver(trail, nil)
	evaluator := risk.NewEvaluator(trail, 50, 10000, nil)
	svc := New(store, resolver, evaluator, settler, trail, 500, func() time.Time { return noon }, nil)
	return svc, trail
}

func TestProcess_EmptyUtterance(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "   ")

	assert.Equal(t, "I didn't hear anything. Please try again.", resp.ResponseText)
	assert.Equal(t, StateReceived, resp.State)
}

func TestProcess_StoreUnavailable(t *testing.T) {
	svc, _ := newTestService(failingStore{}, &stubSettler{})

	resp := svc.Process(context.Background(), "what is my balance")

	assert.Equal(t, "Error: Could not load user data.", resp.ResponseText)
	assert.Equal(t, StateReceived, resp.State)
}

func TestProcess_CheckBalance(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "what is my balance?")

	assert.Equal(t, "Your current account balance is $12450.00.", resp.ResponseText)
	assert.Equal(t, "Check_Balance", resp.Intent)
	assert.Equal(t, StateIntentResolved, resp.State)
	assert.Nil(t, resp.ProactiveAlert)
}

func TestProcess_LowBalanceAlertOnEveryIntent(t *testing.T) {
	store := account.NewSeededMemoryStore()
	require.NoError(t, store.SetBalance(context.Background(), 120.50))
	svc, _ := newTestService(store, &stubSettler{})

	for _, utterance := range []string{"check my balance", "show my history", "gibberish"} {
		resp := svc.Process(context.Background(), utterance)
		require.NotNil(t, resp.ProactiveAlert, "utterance %q", utterance)
		assert.Equal(t, "LOW BALANCE: Your balance is only $120.50.", *resp.ProactiveAlert)
	}
}

func TestProcess_AccountDetails(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "show my account details")

	assert.Contains(t, resp.ResponseText, "Account Holder: Alex Johnson")
	assert.Contains(t, resp.ResponseText, "Account Number (Last 4): 6655")
	assert.Contains(t, resp.ResponseText, "USR-1001")
	assert.NotContains(t, resp.ResponseText, "9988776655")
}

func TestProcess_AccountStatement(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "give me my account statement")

	assert.Equal(t, "Account_Statement", resp.Intent)
	assert.Contains(t, resp.ResponseText, "Debit of $120.50 to Utility Co")
	assert.Contains(t, resp.ResponseText, "Credit of $2000.00 to Alex Johnson")
	assert.Contains(t, resp.ResponseText, "Debit of $1500.00 to Landlord")
}

func TestProcess_ViewHistory(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "show my transactions")

	assert.Equal(t, "View_History", resp.Intent)
	assert.Contains(t, resp.ResponseText, "Your last three transactions were:")
	assert.Contains(t, resp.ResponseText, "Landlord for $1500.00")
}

func TestProcess_LoanInquiry(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "what loan rates do you offer")

	assert.Contains(t, resp.ResponseText, "Personal Loan at 8.5% APR")
	assert.Contains(t, resp.ResponseText, "Home Loan at 4.2% APR")
	assert.Contains(t, resp.ResponseText, "credit card limit is $15000")
}

func TestProcess_SetReminderRent(t *testing.T) {
	store := account.NewSeededMemoryStore()
	svc, _ := newTestService(store, &stubSettler{})

	resp := svc.Process(context.Background(), "remind me to pay my rent")

	assert.Equal(t, "I've set a reminder to pay your rent on the first of next month.", resp.ResponseText)

	actx, err := store.ReadContext(context.Background())
	require.NoError(t, err)
	require.Len(t, actx.Reminders, 1)
	assert.Equal(t, "Payment", actx.Reminders[0].Category)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), actx.Reminders[0].DueDate)
}

func TestProcess_SetReminderGenericPrompts(t *testing.T) {
	store := account.NewSeededMemoryStore()
	svc, _ := newTestService(store, &stubSettler{})

	resp := svc.Process(context.Background(), "set a reminder for me")

	assert.Contains(t, resp.ResponseText, "What payment would you like to be reminded about?")

	actx, err := store.ReadContext(context.Background())
	require.NoError(t, err)
	assert.Empty(t, actx.Reminders)
}

func TestProcess_Unknown(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "sing me a song")

	assert.Equal(t, "Unknown", resp.Intent)
	assert.Contains(t, resp.ResponseText, "core banking tasks")
}

func TestProcess_TransferMissingEntities(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "send money to Mom")

	assert.Equal(t, "Transfer_Funds", resp.Intent)
	assert.Equal(t, StateAwaitingEntities, resp.State)
	assert.Contains(t, resp.ResponseText, "amount and the recipient name")
	assert.Nil(t, resp.SecurityCheck)
}

func TestProcess_TransferLowRisk(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "send 100 to Mom")

	assert.Equal(t, StateAwaitingConfirmation, resp.State)
	require.NotNil(t, resp.Amount)
	assert.Equal(t, 100.0, *resp.Amount)
	require.NotNil(t, resp.Recipient)
	assert.Equal(t, "Mom", *resp.Recipient)

	require.NotNil(t, resp.SecurityCheck)
	assert.True(t, resp.SecurityCheck.IsSafe)
	assert.Contains(t, resp.SecurityCheck.Prompt, "'CONFIRM TRANSACTION'")
	assert.Empty(t, resp.SecurityCheck.RiskScore)
}

func TestProcess_TransferChallenge(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	// Landlord threshold 1500: (5000/1500)*25 ≈ 83 at noon, above 50.
	resp := svc.Process(context.Background(), "transfer 5000 to landlord")

	require.NotNil(t, resp.SecurityCheck)
	assert.False(t, resp.SecurityCheck.IsSafe)
	assert.Equal(t, "83%", resp.SecurityCheck.RiskScore)
	assert.Contains(t, resp.SecurityCheck.Prompt, "HIGH RISK (83%)")
	assert.Contains(t, resp.SecurityCheck.Prompt, "'CONFIRM HIGH RISK TRANSFER'")
}

func TestProcess_TransferInsufficientFunds(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "pay 99999 to Mom")

	require.NotNil(t, resp.SecurityCheck)
	assert.False(t, resp.SecurityCheck.IsSafe)
	assert.Contains(t, resp.SecurityCheck.Prompt, "insufficient funds")
	assert.Empty(t, resp.SecurityCheck.RiskScore)
}

func TestProcess_SelfDepositSafe(t *testing.T) {
	svc, _ := newTestService(account.NewSeededMemoryStore(), &stubSettler{})

	resp := svc.Process(context.Background(), "top up 50000")

	require.NotNil(t, resp.SecurityCheck)
	assert.True(t, resp.SecurityCheck.IsSafe)
	require.NotNil(t, resp.Recipient)
	assert.Equal(t, "Alex Johnson", *resp.Recipient)
}

func TestExecute_Success(t *testing.T) {
	store := account.NewSeededMemoryStore()
	newBalance := 11450.0
	settler := &stubSettler{result: &fabric.TransferResult{
		Status:     fabric.StatusSuccess,
		Message:    "ok",
		NewBalance: &newBalance,
	}}
	svc, trail := newTestService(store, settler)

	result := svc.Execute(context.Background(), 1000, "Mom")

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, StateSettled, result.State)
	require.NotNil(t, result.NewBalance)
	assert.Equal(t, 11450.0, *result.NewBalance)
	assert.Contains(t, result.ResponseText, "new balance is $11450.00")

	require.Len(t, settler.calls, 1)
	assert.Equal(t, "USR-1001", settler.calls[0].UserID)

	actx, err := store.ReadContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11450.0, actx.Profile.Balance)
	last := actx.History[len(actx.History)-1]
	assert.Equal(t, "Mom", last.Recipient)
	assert.Equal(t, account.TypeDebit, last.Type)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusExecSuccess, entries[0].Status)
}

func TestExecute_SelfDepositComputesBalanceLocally(t *testing.T) {
	store := account.NewSeededMemoryStore()
	settler := &stubSettler{result: &fabric.TransferResult{Status: fabric.StatusSuccess}}
	svc, _ := newTestService(store, settler)

	result := svc.Execute(context.Background(), 500, "Alex Johnson")

	assert.Equal(t, "success", result.Status)
	require.NotNil(t, result.NewBalance)
	assert.Equal(t, 12950.0, *result.NewBalance)

	actx, err := store.ReadContext(context.Background())
	require.NoError(t, err)
	last := actx.History[len(actx.History)-1]
	assert.Equal(t, account.TypeCredit, last.Type)
}

func TestExecute_FabricFailure(t *testing.T) {
	settler := &stubSettler{result: &fabric.TransferResult{
		Status:  fabric.StatusFailed,
		Message: "recipient account frozen",
	}}
	store := account.NewSeededMemoryStore()
	svc, trail := newTestService(store, settler)

	result := svc.Execute(context.Background(), 100, "Mom")

	assert.Equal(t, "failure", result.Status)
	assert.Equal(t, StateSettlementFailed, result.State)
	assert.Equal(t, "Transfer failed: recipient account frozen", result.ResponseText)

	// Balance untouched on failure.
	actx, err := store.ReadContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12450.0, actx.Profile.Balance)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusExecFailure, entries[0].Status)
}

func TestExecute_ConnectivityError(t *testing.T) {
	settler := &stubSettler{result: &fabric.TransferResult{
		Status:  fabric.StatusError,
		Message: "connectivity error",
	}}
	svc, trail := newTestService(account.NewSeededMemoryStore(), settler)

	result := svc.Execute(context.Background(), 100, "Mom")

	assert.Equal(t, "failure", result.Status)
	assert.Equal(t, "Transfer failed: connectivity error", result.ResponseText)
	require.Len(t, trail.Entries(), 1)
	assert.Equal(t, audit.StatusExecFailure, trail.Entries()[0].Status)
}

func TestExecute_RechecksFundsUnderLock(t *testing.T) {
	settler := &stubSettler{}
	svc, trail := newTestService(account.NewSeededMemoryStore(), settler)

	result := svc.Execute(context.Background(), 99999, "Mom")

	assert.Equal(t, "failure", result.Status)
	assert.Contains(t, result.ResponseText, "insufficient funds")
	assert.Empty(t, settler.calls)
	require.Len(t, trail.Entries(), 1)
	assert.Equal(t, audit.StatusExecFailure, trail.Entries()[0].Status)
}

func TestExecute_RejectsInvalidInput(t *testing.T) {
	settler := &stubSettler{}
	svc, _ := newTestService(account.NewSeededMemoryStore(), settler)

	for _, tc := range []struct {
		amount    float64
		recipient string
	}{
		{0, "Mom"},
		{-10, "Mom"},
		{100, ""},
	} {
		result := svc.Execute(context.Background(), tc.amount, tc.recipient)
		assert.Equal(t, "failure", result.Status)
	}
	assert.Empty(t, settler.calls)
}

func TestNextFirstOfMonth(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		nextFirstOfMonth(time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		nextFirstOfMonth(time.Date(2026, 12, 5, 10, 0, 0, 0, time.UTC)))
}
