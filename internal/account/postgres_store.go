package account

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mbd888/guardian/internal/idgen"
)

// PostgresStore persists the account context in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the account tables if they do not exist.
// Beneficiaries carry an explicit position column: recipient resolution
// depends on a stable iteration order.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_profile (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			primary_account TEXT NOT NULL,
			balance NUMERIC(20,2) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS beneficiaries (
			position INT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			anomaly_threshold NUMERIC(20,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			recipient TEXT NOT NULL,
			amount NUMERIC(20,2) NOT NULL,
			type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS loan_products (
			position INT PRIMARY KEY,
			name TEXT NOT NULL,
			rate TEXT NOT NULL DEFAULT '',
			max_limit NUMERIC(20,2) NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate account store: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ReadContext(ctx context.Context) (*Context, error) {
	out := &Context{}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, primary_account, balance FROM user_profile LIMIT 1`)
	if err := row.Scan(&out.Profile.ID, &out.Profile.Name, &out.Profile.PrimaryAccount, &out.Profile.Balance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := s.readBeneficiaries(ctx, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.readHistory(ctx, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.readReminders(ctx, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.readLoanProducts(ctx, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return out, nil
}

func (s *PostgresStore) readBeneficiaries(ctx context.Context, out *Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, anomaly_threshold FROM beneficiaries ORDER BY position`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var b Beneficiary
		if err := rows.Scan(&b.Name, &b.AnomalyThreshold); err != nil {
			return err
		}
		out.Beneficiaries = append(out.Beneficiaries, b)
	}
	return rows.Err()
}

func (s *PostgresStore) readHistory(ctx context.Context, out *Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recipient, amount, type, created_at FROM transactions ORDER BY id`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r TransactionRecord
		var typ string
		if err := rows.Scan(&r.Recipient, &r.Amount, &typ, &r.CreatedAt); err != nil {
			return err
		}
		r.Type = TransactionType(typ)
		out.History = append(out.History, r)
	}
	return rows.Err()
}

func (s *PostgresStore) readReminders(ctx context.Context, out *Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, description, due_date FROM reminders ORDER BY created_at`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.Category, &r.Description, &r.DueDate); err != nil {
			return err
		}
		out.Reminders = append(out.Reminders, r)
	}
	return rows.Err()
}

func (s *PostgresStore) readLoanProducts(ctx context.Context, out *Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, COALESCE(rate, ''), COALESCE(max_limit, 0) FROM loan_products ORDER BY position`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var p LoanProduct
		if err := rows.Scan(&p.Name, &p.Rate, &p.MaxLimit); err != nil {
			return err
		}
		out.LoanProducts = append(out.LoanProducts, p)
	}
	return rows.Err()
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, rec *TransactionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (recipient, amount, type, created_at)
		VALUES ($1, $2, $3, $4)
	`, rec.Recipient, rec.Amount, string(rec.Type), createdAt)
	return err
}

func (s *PostgresStore) AppendReminder(ctx context.Context, rem *Reminder) error {
	id := rem.ID
	if id == "" {
		id = idgen.WithPrefix("rem_")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, category, description, due_date)
		VALUES ($1, $2, $3, $4)
	`, id, rem.Category, rem.Description, rem.DueDate)
	return err
}

func (s *PostgresStore) SetBalance(ctx context.Context, balance float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_profile SET balance = $1`, balance)
	return err
}
