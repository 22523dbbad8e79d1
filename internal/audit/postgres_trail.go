package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresTrail writes audit entries to PostgreSQL.
type PostgresTrail struct {
	db       *sql.DB
	observer Observer
}

// NewPostgresTrail creates an audit trail backed by PostgreSQL.
func NewPostgresTrail(db *sql.DB) *PostgresTrail {
	return &PostgresTrail{db: db}
}

// Observe sets the observer notified on every recorded entry.
func (t *PostgresTrail) Observe(fn Observer) {
	t.observer = fn
}

// Migrate creates the audit table if it does not exist.
func (t *PostgresTrail) Migrate(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_log (
			id BIGSERIAL PRIMARY KEY,
			actor TEXT NOT NULL,
			intent TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("migrate audit trail: %w", err)
	}
	_, err = t.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_actor_created ON audit_log (actor, created_at DESC)`)
	return err
}

func (t *PostgresTrail) Record(ctx context.Context, entry *Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (actor, intent, status, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, entry.Actor, entry.Intent, string(entry.Status), entry.Detail, entry.RequestID, createdAt).Scan(&entry.ID)
	if err != nil {
		return err
	}

	if t.observer != nil {
		cp := *entry
		cp.CreatedAt = createdAt
		t.observer(&cp)
	}
	return nil
}

func (t *PostgresTrail) Query(ctx context.Context, f Filter) ([]*Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	to := f.To
	if to.IsZero() {
		to = time.Now()
	}

	query := `
		SELECT id, actor, intent, status, detail, request_id, created_at
		FROM audit_log
		WHERE ($1 = '' OR actor = $1) AND created_at >= $2 AND created_at <= $3`
	args := []any{f.Actor, f.From, to}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Before != nil {
		// Row comparison keeps pagination stable across entries that
		// share a created_at value.
		args = append(args, f.Before.CreatedAt, f.Before.ID)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var st string
		if err := rows.Scan(&e.ID, &e.Actor, &e.Intent, &st, &e.Detail, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = Status(st)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
