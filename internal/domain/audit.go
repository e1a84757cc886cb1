package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditRecord is an immutable before/after snapshot of one menu mutation.
type AuditRecord struct {
	ID         uuid.UUID   `json:"id"`
	MenuItemID uuid.UUID   `json:"menu_item_id"`
	Action     AuditAction `json:"action"`
	Before     *MenuItem   `json:"before"` // nil for CREATE
	After      *MenuItem   `json:"after"`  // nil for DELETE
	ActorEmail string      `json:"actor_email"`
	CreatedAt  time.Time   `json:"created_at"`
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, rec *AuditRecord) error
	ListRecent(ctx context.Context, limit int) ([]*AuditRecord, error)
}
