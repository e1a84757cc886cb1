package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/menuboard/internal/api/v1"
	"github.com/gosuda/menuboard/internal/api/ws"
	"github.com/gosuda/menuboard/internal/config"
)

func registerPublicRoutes(api huma.API, deps Deps, cfg *config.Config) {
	v1.RegisterPublicRoutes(api, deps.Menus, v1.PublicConfig{
		SupabaseURL:     cfg.Supabase.URL,
		SupabaseAnonKey: cfg.Supabase.AnonKey,
	})
}

func registerLoginRoutes(api huma.API, deps Deps) {
	v1.RegisterLoginRoutes(api, deps.Auth)
}

func registerAdminRoutes(api huma.API, deps Deps) {
	v1.RegisterAdminMenuRoutes(api, deps.Menus)
	v1.RegisterAuditRoutes(api, deps.Audit)
}

func registerUploadRoutes(api huma.API, deps Deps) {
	v1.RegisterUploadRoutes(api, deps.Uploader, deps.Metrics)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/admin/changes", hub.ServeChanges)
}
