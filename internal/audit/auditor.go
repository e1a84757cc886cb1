// Package audit records before/after snapshots of menu mutations and fans
// them out to the admin change feed.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/menuboard/internal/domain"
	"github.com/gosuda/menuboard/internal/metrics"
	redisstore "github.com/gosuda/menuboard/internal/store/redis"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 200
)

// writeTimeout bounds the audit append and change publish once they are
// detached from the request.
const writeTimeout = 5 * time.Second

// Publisher delivers change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ChangeEvent is the payload published for every recorded mutation.
type ChangeEvent struct {
	Action     domain.AuditAction `json:"action"`
	MenuItemID uuid.UUID          `json:"menu_item_id"`
	ActorEmail string             `json:"actor_email"`
	Item       *domain.MenuItem   `json:"item,omitempty"`
	At         time.Time          `json:"at"`
}

type Auditor struct {
	repo      domain.AuditRepository
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewAuditor returns an Auditor. publisher and m may be nil.
func NewAuditor(repo domain.AuditRepository, publisher Publisher, m *metrics.Metrics) *Auditor {
	return &Auditor{repo: repo, publisher: publisher, metrics: m}
}

// Record appends one audit record. Failures are logged and counted but never
// returned: the mutation it describes has already happened. The write ignores
// cancellation of ctx so a client hanging up after the commit still leaves a
// record.
func (a *Auditor) Record(ctx context.Context, actor *domain.Identity, action domain.AuditAction, before, after *domain.MenuItem) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	rec := &domain.AuditRecord{
		ID:        uuid.New(),
		Action:    action,
		Before:    before,
		After:     after,
		CreatedAt: domain.Now(),
	}
	switch {
	case after != nil:
		rec.MenuItemID = after.ID
	case before != nil:
		rec.MenuItemID = before.ID
	}
	if actor != nil {
		rec.ActorEmail = actor.Email
	}

	if err := a.repo.Append(ctx, rec); err != nil {
		a.metrics.AuditWriteFailed()
		log.Warn().Err(err).
			Str("action", string(action)).
			Str("menu_item_id", rec.MenuItemID.String()).
			Msg("audit: append failed")
	}

	a.publish(ctx, rec)
}

func (a *Auditor) publish(ctx context.Context, rec *domain.AuditRecord) {
	if a.publisher == nil {
		return
	}

	ev := ChangeEvent{
		Action:     rec.Action,
		MenuItemID: rec.MenuItemID,
		ActorEmail: rec.ActorEmail,
		Item:       rec.After,
		At:         rec.CreatedAt,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Msg("audit: marshal change event")
		return
	}

	if err := a.publisher.Publish(ctx, redisstore.MenuChangesChannel, payload); err != nil {
		log.Debug().Err(err).Msg("audit: publish change event")
	}
}

// ListRecent returns the newest records first. A non-positive limit selects
// DefaultListLimit; larger values are capped at MaxListLimit.
func (a *Auditor) ListRecent(ctx context.Context, limit int) ([]*domain.AuditRecord, error) {
	recs, err := a.repo.ListRecent(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("audit.ListRecent: %w", err)
	}
	return recs, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
