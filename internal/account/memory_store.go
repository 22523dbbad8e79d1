package account

import (
	"context"
	"sync"
	"time"

	"github.com/mbd888/guardian/internal/idgen"
)

// MemoryStore keeps the account context in memory for demo/testing.
type MemoryStore struct {
	mu  sync.RWMutex
	ctx Context
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewSeededMemoryStore creates an in-memory store with a demo account:
// one user, three beneficiaries with anomaly thresholds, a short history,
// and the standard loan products.
func NewSeededMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.ctx = Context{
		Profile: UserProfile{
			ID:             "USR-1001",
			Name:           "Alex Johnson",
			PrimaryAccount: "9988776655",
			Balance:        12450.00,
		},
		Beneficiaries: []Beneficiary{
			{Name: "Mom", AnomalyThreshold: 2000},
			{Name: "Landlord", AnomalyThreshold: 1500},
			{Name: "Utility Co", AnomalyThreshold: 300},
		},
		History: []TransactionRecord{
			{Recipient: "Utility Co", Amount: 120.50, Type: TypeDebit, CreatedAt: time.Now().Add(-72 * time.Hour)},
			{Recipient: "Alex Johnson", Amount: 2000, Type: TypeCredit, CreatedAt: time.Now().Add(-48 * time.Hour)},
			{Recipient: "Landlord", Amount: 1500, Type: TypeDebit, CreatedAt: time.Now().Add(-24 * time.Hour)},
		},
		LoanProducts: []LoanProduct{
			{Name: "Personal Loan", Rate: "8.5% APR"},
			{Name: "Home Loan", Rate: "4.2% APR"},
			{Name: "Credit Limit", MaxLimit: 15000},
		},
	}
	return s
}

// Seed replaces the stored context (for tests).
func (s *MemoryStore) Seed(ctx Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *MemoryStore) ReadContext(_ context.Context) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := Context{
		Profile:       s.ctx.Profile,
		Beneficiaries: append([]Beneficiary(nil), s.ctx.Beneficiaries...),
		History:       append([]TransactionRecord(nil), s.ctx.History...),
		Reminders:     append([]Reminder(nil), s.ctx.Reminders...),
		LoanProducts:  append([]LoanProduct(nil), s.ctx.LoanProducts...),
	}
	return &cp, nil
}

func (s *MemoryStore) AppendTransaction(_ context.Context, rec *TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.ctx.History = append(s.ctx.History, cp)
	return nil
}

func (s *MemoryStore) AppendReminder(_ context.Context, rem *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rem
	if cp.ID == "" {
		cp.ID = idgen.WithPrefix("rem_")
	}
	s.ctx.Reminders = append(s.ctx.Reminders, cp)
	return nil
}

func (s *MemoryStore) SetBalance(_ context.Context, balance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx.Profile.Balance = balance
	return nil
}
