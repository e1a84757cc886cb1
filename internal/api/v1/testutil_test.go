package v1_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/menuboard/internal/domain"
	"github.com/gosuda/menuboard/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers inject the authenticated identity for DoCtx
// ---------------------------------------------------------------------------

var testAdmin = &domain.Identity{Subject: "u-1", Email: "admin@example.com", Role: "admin"}

func adminCtx() context.Context {
	return middleware.WithIdentity(context.Background(), testAdmin)
}

// errorBody decodes the {"error": ...} shape.
type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

// ---------------------------------------------------------------------------
// Mock MenuService
// ---------------------------------------------------------------------------

type mockMenuService struct {
	listActiveFunc      func(ctx context.Context) ([]*domain.MenuItem, error)
	listBestSellersFunc func(ctx context.Context) ([]*domain.MenuItem, error)
	listAllFunc         func(ctx context.Context) ([]*domain.MenuItem, error)
	getFunc             func(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error)
	createFunc          func(ctx context.Context, actor *domain.Identity, f domain.MenuItemFields) (*domain.MenuItem, error)
	updateFunc          func(ctx context.Context, actor *domain.Identity, id uuid.UUID, p domain.MenuItemPatch) (*domain.MenuItem, error)
	deleteFunc          func(ctx context.Context, actor *domain.Identity, id uuid.UUID) error
}

func (m *mockMenuService) ListActive(ctx context.Context) ([]*domain.MenuItem, error) {
	return m.listActiveFunc(ctx)
}

func (m *mockMenuService) ListBestSellers(ctx context.Context) ([]*domain.MenuItem, error) {
	return m.listBestSellersFunc(ctx)
}

func (m *mockMenuService) ListAll(ctx context.Context) ([]*domain.MenuItem, error) {
	return m.listAllFunc(ctx)
}

func (m *mockMenuService) Get(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error) {
	return m.getFunc(ctx, id)
}

func (m *mockMenuService) Create(ctx context.Context, actor *domain.Identity, f domain.MenuItemFields) (*domain.MenuItem, error) {
	return m.createFunc(ctx, actor, f)
}

func (m *mockMenuService) Update(ctx context.Context, actor *domain.Identity, id uuid.UUID, p domain.MenuItemPatch) (*domain.MenuItem, error) {
	return m.updateFunc(ctx, actor, id, p)
}

func (m *mockMenuService) Delete(ctx context.Context, actor *domain.Identity, id uuid.UUID) error {
	return m.deleteFunc(ctx, actor, id)
}

// ---------------------------------------------------------------------------
// Mock AuditLog
// ---------------------------------------------------------------------------

type mockAuditLog struct {
	listRecentFunc func(ctx context.Context, limit int) ([]*domain.AuditRecord, error)
}

func (m *mockAuditLog) ListRecent(ctx context.Context, limit int) ([]*domain.AuditRecord, error) {
	return m.listRecentFunc(ctx, limit)
}

// ---------------------------------------------------------------------------
// Mock ImageUploader
// ---------------------------------------------------------------------------

type mockUploader struct {
	maxBytes int64
	putFunc  func(ctx context.Context, r io.Reader, size int64, contentType, original string) (string, error)
	calls    int
}

func (m *mockUploader) Put(ctx context.Context, r io.Reader, size int64, contentType, original string) (string, error) {
	m.calls++
	return m.putFunc(ctx, r, size, contentType, original)
}

func (m *mockUploader) MaxBytes() int64 {
	return m.maxBytes
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc func(ctx context.Context, email, password string) (string, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return m.loginFunc(ctx, email, password)
}
