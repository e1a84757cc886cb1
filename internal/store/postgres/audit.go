package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/menuboard/internal/domain"
)

// AuditRepo is append-only: it has no update or delete.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Append(ctx context.Context, rec *domain.AuditRecord) error {
	before, err := marshalSnapshot(rec.Before)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: marshal before: %w", err)
	}
	after, err := marshalSnapshot(rec.After)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: marshal after: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO menu_audit_logs (id, menu_item_id, action, before_state, after_state, actor_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.MenuItemID, string(rec.Action), before, after, rec.ActorEmail, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, menu_item_id, action, before_state, after_state, actor_email, created_at
		 FROM menu_audit_logs
		 ORDER BY created_at DESC, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListRecent: %w", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows, "auditRepo.ListRecent")
}

// marshalSnapshot returns nil for a nil item so the column stores SQL NULL.
func marshalSnapshot(m *domain.MenuItem) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalSnapshot(data []byte) (*domain.MenuItem, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m domain.MenuItem
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanAuditRecords(rows pgx.Rows, caller string) ([]*domain.AuditRecord, error) {
	records := make([]*domain.AuditRecord, 0)
	for rows.Next() {
		var rec domain.AuditRecord
		var action string
		var before, after []byte

		if err := rows.Scan(
			&rec.ID, &rec.MenuItemID, &action, &before, &after, &rec.ActorEmail, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		rec.Action = domain.AuditAction(action)

		var err error
		if rec.Before, err = unmarshalSnapshot(before); err != nil {
			return nil, fmt.Errorf("%s: unmarshal before: %w", caller, err)
		}
		if rec.After, err = unmarshalSnapshot(after); err != nil {
			return nil, fmt.Errorf("%s: unmarshal after: %w", caller, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return records, nil
}
