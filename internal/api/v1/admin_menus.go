package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/menuboard/internal/domain"
)

type CreateMenuInput struct {
	Body struct {
		Name        string          `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Category    string          `json:"category" minLength:"1" maxLength:"100" doc:"Menu section"`
		Price       int64           `json:"price" minimum:"0" doc:"Price in minor currency units"`
		Active      *bool           `json:"active,omitempty" doc:"Shown on the public menu (default true)"`
		BestSeller  bool            `json:"best_seller,omitempty" doc:"Featured in the best-seller list"`
		Description string          `json:"description,omitempty" maxLength:"2000" doc:"Long description"`
		Attributes  json.RawMessage `json:"attributes,omitempty" doc:"Free-form descriptive fields"`
		ImageURL    string          `json:"image_url,omitempty" doc:"URL returned by /upload-image"`
	}
}

type MenuItemOutput struct {
	Body *domain.MenuItem
}

type MenuItemIDInput struct {
	ID uuid.UUID `path:"id" doc:"Menu item ID"`
}

type UpdateMenuInput struct {
	ID   uuid.UUID `path:"id" doc:"Menu item ID"`
	Body struct {
		Name        *string         `json:"name,omitempty" minLength:"1" maxLength:"255" doc:"Display name"`
		Category    *string         `json:"category,omitempty" minLength:"1" maxLength:"100" doc:"Menu section"`
		Price       *int64          `json:"price,omitempty" minimum:"0" doc:"Price in minor currency units"`
		Active      *bool           `json:"active,omitempty" doc:"Shown on the public menu"`
		BestSeller  *bool           `json:"best_seller,omitempty" doc:"Featured in the best-seller list"`
		Description *string         `json:"description,omitempty" maxLength:"2000" doc:"Long description"`
		Attributes  json.RawMessage `json:"attributes,omitempty" doc:"Replaces all descriptive fields"`
		ImageURL    *string         `json:"image_url,omitempty" doc:"URL returned by /upload-image"`
	}
}

func RegisterAdminMenuRoutes(api huma.API, menus MenuService) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-list-menus",
		Method:      http.MethodGet,
		Path:        "/admin/menus",
		Summary:     "List all menu items, newest first",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *ListMenusInput) (*ListMenusOutput, error) {
		items, err := menus.ListAll(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list menu items", err)
		}
		return &ListMenusOutput{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-get-menu",
		Method:      http.MethodGet,
		Path:        "/admin/menus/{id}",
		Summary:     "Get a menu item by ID",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *MenuItemIDInput) (*MenuItemOutput, error) {
		item, err := menus.Get(ctx, input.ID)
		if err != nil {
			return nil, menuError(err, "get menu item")
		}
		return &MenuItemOutput{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-create-menu",
		Method:      http.MethodPost,
		Path:        "/admin/menus",
		Summary:     "Create a menu item",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *CreateMenuInput) (*MenuItemOutput, error) {
		who, err := actor(ctx)
		if err != nil {
			return nil, err
		}

		active := true
		if input.Body.Active != nil {
			active = *input.Body.Active
		}

		item, err := menus.Create(ctx, who, domain.MenuItemFields{
			Name:        input.Body.Name,
			Category:    input.Body.Category,
			Price:       input.Body.Price,
			Active:      active,
			BestSeller:  input.Body.BestSeller,
			Description: input.Body.Description,
			Attributes:  input.Body.Attributes,
			ImageURL:    input.Body.ImageURL,
		})
		if err != nil {
			return nil, menuError(err, "create menu item")
		}
		return &MenuItemOutput{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-update-menu",
		Method:      http.MethodPut,
		Path:        "/admin/menus/{id}",
		Summary:     "Update fields of a menu item",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *UpdateMenuInput) (*MenuItemOutput, error) {
		who, err := actor(ctx)
		if err != nil {
			return nil, err
		}

		item, err := menus.Update(ctx, who, input.ID, domain.MenuItemPatch{
			Name:        input.Body.Name,
			Category:    input.Body.Category,
			Price:       input.Body.Price,
			Active:      input.Body.Active,
			BestSeller:  input.Body.BestSeller,
			Description: input.Body.Description,
			Attributes:  input.Body.Attributes,
			ImageURL:    input.Body.ImageURL,
		})
		if err != nil {
			return nil, menuError(err, "update menu item")
		}
		return &MenuItemOutput{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-delete-menu",
		Method:      http.MethodDelete,
		Path:        "/admin/menus/{id}",
		Summary:     "Delete a menu item",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *MenuItemIDInput) (*struct{}, error) {
		who, err := actor(ctx)
		if err != nil {
			return nil, err
		}

		if err := menus.Delete(ctx, who, input.ID); err != nil {
			return nil, menuError(err, "delete menu item")
		}
		return nil, nil
	})
}
