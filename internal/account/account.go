// Package account provides read/write access to the per-user banking
// context: profile, beneficiaries, transaction history, and reminders.
//
// The backing store is a collaborator — Postgres in production, an in-memory
// seed in demo mode. Callers treat unavailability as a soft failure and
// answer generically rather than crashing.
package account

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the context store cannot be read.
var ErrUnavailable = errors.New("account context unavailable")

// TransactionType labels a transaction as inbound or outbound.
type TransactionType string

const (
	TypeCredit TransactionType = "Credit" // self-deposit / top-up
	TypeDebit  TransactionType = "Debit"  // outbound transfer
)

// UserProfile holds the account holder's identity and balance.
type UserProfile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PrimaryAccount string  `json:"primaryAccount"`
	Balance        float64 `json:"balance"`
}

// MaskedAccount returns the last four digits of the primary account number.
func (p *UserProfile) MaskedAccount() string {
	if len(p.PrimaryAccount) <= 4 {
		return p.PrimaryAccount
	}
	return p.PrimaryAccount[len(p.PrimaryAccount)-4:]
}

// Beneficiary is a known transfer recipient with their anomaly threshold:
// the monetary baseline above which transfers to them score as unusual.
type Beneficiary struct {
	Name             string  `json:"name"`
	AnomalyThreshold float64 `json:"anomalyThreshold"`
}

// TransactionRecord is one row of the append-only transaction history.
type TransactionRecord struct {
	Recipient string          `json:"recipient"`
	Amount    float64         `json:"amount"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Reminder is a user-scheduled payment alert.
type Reminder struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

// LoanProduct is a credit product offered to the account holder.
type LoanProduct struct {
	Name     string  `json:"name"`
	Rate     string  `json:"rate,omitempty"`
	MaxLimit float64 `json:"maxLimit,omitempty"`
}

// Context bundles everything one request needs to know about the account.
// Beneficiaries keep insertion order: recipient resolution scans them in
// order and takes the first substring match, so ordering is load-bearing.
type Context struct {
	Profile       UserProfile
	Beneficiaries []Beneficiary
	History       []TransactionRecord
	Reminders     []Reminder
	LoanProducts  []LoanProduct
}

// Threshold returns the anomaly threshold for a recipient, or (0, false)
// when the recipient is not a known beneficiary.
func (c *Context) Threshold(recipient string) (float64, bool) {
	for _, b := range c.Beneficiaries {
		if b.Name == recipient {
			return b.AnomalyThreshold, true
		}
	}
	return 0, false
}

// LastTransactions returns up to n most recent transactions, oldest first.
func (c *Context) LastTransactions(n int) []TransactionRecord {
	if n <= 0 || len(c.History) == 0 {
		return nil
	}
	if n > len(c.History) {
		n = len(c.History)
	}
	return c.History[len(c.History)-n:]
}

// Store is the account context collaborator.
type Store interface {
	// ReadContext returns the full account context, or ErrUnavailable.
	ReadContext(ctx context.Context) (*Context, error)
	// AppendTransaction appends one record to the transaction history.
	AppendTransaction(ctx context.Context, rec *TransactionRecord) error
	// AppendReminder appends one reminder.
	AppendReminder(ctx context.Context, rem *Reminder) error
	// SetBalance overwrites the current balance (settlement outcome).
	SetBalance(ctx context.Context, balance float64) error
}
