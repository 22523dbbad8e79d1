package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/guardian/internal/account"
	"github.com/mbd888/guardian/internal/audit"
)

func testContext() *account.Context {
	return &account.Context{
		Profile: account.UserProfile{ID: "USR-1001", Name: "Alex Johnson"},
		Beneficiaries: []account.Beneficiary{
			{Name: "Mom", AnomalyThreshold: 2000},
			{Name: "Landlord", AnomalyThreshold: 1000},
		},
	}
}

func newTestEvaluator() (*Evaluator, *audit.MemoryTrail) {
	trail := audit.NewMemoryTrail()
	return NewEvaluator(trail, 50, 10000, nil), trail
}

// Fixed timestamps inside and outside the off-hours window.
var (
	noonTime     = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	lateTime     = time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	earlyTime    = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	boundary6am  = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	boundary10pm = time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
)

func TestEvaluate_InsufficientFundsGate(t *testing.T) {
	e, trail := newTestEvaluator()
	ctx := context.Background()

	// The gate dominates every risk-factor combination, including off-hours
	for _, at := range []time.Time{noonTime, lateTime, earlyTime} {
		v := e.Evaluate(ctx, "USR-1001", 150, "Mom", 100, testContext(), at)

		assert.False(t, v.Safe)
		assert.Equal(t, CodeInsufficientFunds, v.Code)
		assert.Nil(t, v.Score)
	}

	entries := trail.Entries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, audit.StatusBlocked, e.Status)
	}
}

func TestEvaluate_HighRiskOffHoursChallenge(t *testing.T) {
	e, trail := newTestEvaluator()
	ctx := context.Background()

	// threshold 1000, amount 3000, off-hours: (3000/1000)*25 + 15 = 90
	v := e.Evaluate(ctx, "USR-1001", 3000, "Landlord", 10000, testContext(), lateTime)

	assert.False(t, v.Safe)
	assert.Equal(t, CodeChallenge, v.Code)
	require.NotNil(t, v.Score)
	assert.InDelta(t, 90.0, *v.Score, 0.001)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusChallenge, entries[0].Status)
	assert.Contains(t, entries[0].Detail, "90.00")
}

func TestEvaluate_UnknownRecipientUsesDefaultThreshold(t *testing.T) {
	e, _ := newTestEvaluator()
	ctx := context.Background()

	// amount 100 under default 10000 at noon: score 0, safe
	v := e.Evaluate(ctx, "USR-1001", 100, "Stranger", 5000, testContext(), noonTime)

	assert.True(t, v.Safe)
	assert.Equal(t, CodeProceed, v.Code)
	require.NotNil(t, v.Score)
	assert.Zero(t, *v.Score)
}

func TestEvaluate_SelfDepositAlwaysSafe(t *testing.T) {
	e, trail := newTestEvaluator()
	ctx := context.Background()

	// Huge amount, off-hours, zero balance: still score 0 for self-deposits
	v := e.Evaluate(ctx, "USR-1001", 1000000, "Alex Johnson", 0, testContext(), lateTime)

	assert.True(t, v.Safe)
	assert.True(t, v.SelfDeposit)
	require.NotNil(t, v.Score)
	assert.Zero(t, *v.Score)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusLowRiskPass, entries[0].Status)
}

func TestEvaluate_ScoreClampedAt100(t *testing.T) {
	e, _ := newTestEvaluator()
	ctx := context.Background()

	// (50000/1000)*25 = 1250 → clamped to 100
	v := e.Evaluate(ctx, "USR-1001", 50000, "Landlord", 100000, testContext(), noonTime)

	require.NotNil(t, v.Score)
	assert.Equal(t, 100.0, *v.Score)
	assert.Equal(t, CodeChallenge, v.Code)
}

func TestEvaluate_NilContext(t *testing.T) {
	e, trail := newTestEvaluator()
	ctx := context.Background()

	v := e.Evaluate(ctx, "USR-1001", 100, "Mom", 1000, nil, noonTime)

	assert.False(t, v.Safe)
	assert.Equal(t, CodeContextUnavailable, v.Code)
	assert.Nil(t, v.Score)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusFailed, entries[0].Status)
}

func TestInOffHours(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"noon", noonTime, false},
		{"23:30", lateTime, true},
		{"03:00", earlyTime, true},
		{"22:00 inclusive start", boundary10pm, true},
		{"06:00 exclusive end", boundary6am, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inOffHours(tt.at))
		})
	}
}

func TestScore_BelowThresholdNoAnomalyFactor(t *testing.T) {
	// amount at (not above) threshold contributes nothing
	assert.Zero(t, score(1000, 1000, noonTime))
	// off-hours alone is 15
	assert.Equal(t, 15.0, score(1000, 1000, lateTime))
}
