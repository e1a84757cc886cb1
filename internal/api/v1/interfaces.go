package v1

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/gosuda/menuboard/internal/domain"
)

// MenuService abstracts menu operations for handler testing.
// *menu.Service satisfies this interface.
type MenuService interface {
	ListActive(ctx context.Context) ([]*domain.MenuItem, error)
	ListBestSellers(ctx context.Context) ([]*domain.MenuItem, error)
	ListAll(ctx context.Context) ([]*domain.MenuItem, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error)
	Create(ctx context.Context, actor *domain.Identity, fields domain.MenuItemFields) (*domain.MenuItem, error)
	Update(ctx context.Context, actor *domain.Identity, id uuid.UUID, patch domain.MenuItemPatch) (*domain.MenuItem, error)
	Delete(ctx context.Context, actor *domain.Identity, id uuid.UUID) error
}

// AuditLog abstracts audit reads. *audit.Auditor satisfies this interface.
type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditRecord, error)
}

// ImageUploader abstracts the image bucket. *imagestore.Store satisfies this
// interface.
type ImageUploader interface {
	Put(ctx context.Context, r io.Reader, size int64, contentType, original string) (string, error)
	MaxBytes() int64
}

// AuthService abstracts password login. *auth.Service satisfies this
// interface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}
