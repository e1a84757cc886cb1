package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/menuboard/internal/domain"
)

type ListMenusInput struct{}

type ListMenusOutput struct {
	Body []*domain.MenuItem
}

// PublicConfig is what the browser needs to bootstrap against the hosted
// identity backend.
type PublicConfig struct {
	SupabaseURL     string `json:"supabaseUrl"`
	SupabaseAnonKey string `json:"supabaseAnonKey"`
}

type GetConfigOutput struct {
	Body PublicConfig
}

func RegisterPublicRoutes(api huma.API, menus MenuService, cfg PublicConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "list-menus",
		Method:      http.MethodGet,
		Path:        "/menus",
		Summary:     "List active menu items",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, _ *ListMenusInput) (*ListMenusOutput, error) {
		items, err := menus.ListActive(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list menu items", err)
		}
		return &ListMenusOutput{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-best-sellers",
		Method:      http.MethodGet,
		Path:        "/menus/best-seller",
		Summary:     "List active best-selling menu items",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, _ *ListMenusInput) (*ListMenusOutput, error) {
		items, err := menus.ListBestSellers(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list best sellers", err)
		}
		return &ListMenusOutput{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/config",
		Summary:     "Frontend bootstrap configuration",
		Tags:        []string{"Config"},
	}, func(_ context.Context, _ *struct{}) (*GetConfigOutput, error) {
		return &GetConfigOutput{Body: cfg}, nil
	})
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil(items []*domain.MenuItem) []*domain.MenuItem {
	if items == nil {
		return []*domain.MenuItem{}
	}
	return items
}
