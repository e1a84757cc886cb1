package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxMenuNameLen     = 255
	maxMenuCategoryLen = 100
)

type MenuItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       int64           `json:"price"` // minor currency units
	Active      bool            `json:"active"`
	BestSeller  bool            `json:"best_seller"`
	Description string          `json:"description"`
	Attributes  json.RawMessage `json:"attributes"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MenuItemFields are the caller-supplied attributes of a new menu item.
type MenuItemFields struct {
	Name        string
	Category    string
	Price       int64
	Active      bool
	BestSeller  bool
	Description string
	Attributes  json.RawMessage
	ImageURL    string
}

// MenuItemPatch is a partial update. Nil fields are left unchanged.
type MenuItemPatch struct {
	Name        *string
	Category    *string
	Price       *int64
	Active      *bool
	BestSeller  *bool
	Description *string
	Attributes  json.RawMessage
	ImageURL    *string
}

// Now returns the current UTC time at the microsecond precision timestamptz
// stores, so a written item compares equal to the same item read back.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewMenuItem creates a MenuItem with a fresh ID and timestamps.
func NewMenuItem(f MenuItemFields) (*MenuItem, error) {
	now := Now()
	item := &MenuItem{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(f.Name),
		Category:    strings.TrimSpace(f.Category),
		Price:       f.Price,
		Active:      f.Active,
		BestSeller:  f.BestSeller,
		Description: f.Description,
		Attributes:  f.Attributes,
		ImageURL:    f.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(item.Attributes) == 0 {
		item.Attributes = json.RawMessage("{}")
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks field bounds. Failures are *ValidationError.
func (m *MenuItem) Validate() error {
	switch {
	case m.Name == "":
		return &ValidationError{Field: "name", Reason: "is required"}
	case len(m.Name) > maxMenuNameLen:
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("exceeds %d characters", maxMenuNameLen)}
	case m.Category == "":
		return &ValidationError{Field: "category", Reason: "is required"}
	case len(m.Category) > maxMenuCategoryLen:
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("exceeds %d characters", maxMenuCategoryLen)}
	case m.Price < 0:
		return &ValidationError{Field: "price", Reason: "must be >= 0"}
	case len(m.Attributes) > 0 && !isJSONObject(m.Attributes):
		return &ValidationError{Field: "attributes", Reason: "must be a JSON object"}
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// Apply returns a copy of m with the patch applied and UpdatedAt advanced.
// ID and CreatedAt are never changed.
func (m *MenuItem) Apply(p MenuItemPatch) *MenuItem {
	next := *m
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		next.Category = strings.TrimSpace(*p.Category)
	}
	if p.Price != nil {
		next.Price = *p.Price
	}
	if p.Active != nil {
		next.Active = *p.Active
	}
	if p.BestSeller != nil {
		next.BestSeller = *p.BestSeller
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Attributes != nil {
		next.Attributes = append(json.RawMessage(nil), p.Attributes...)
	}
	if p.ImageURL != nil {
		next.ImageURL = *p.ImageURL
	}
	next.UpdatedAt = Now()
	return &next
}

// Featured reports whether the item belongs in the public best-seller list.
func (m *MenuItem) Featured() bool {
	return m.Active && m.BestSeller
}

// MenuRepository persists menu items. Create and Update refresh m from the
// stored row.
type MenuRepository interface {
	ListActive(ctx context.Context) ([]*MenuItem, error)
	ListBestSellers(ctx context.Context, limit int) ([]*MenuItem, error)
	List(ctx context.Context) ([]*MenuItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	Create(ctx context.Context, m *MenuItem) error
	Update(ctx context.Context, m *MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}
