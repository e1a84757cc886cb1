package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/menuboard/internal/api/v1"
	"github.com/gosuda/menuboard/internal/api/ws"
	"github.com/gosuda/menuboard/internal/config"
	"github.com/gosuda/menuboard/internal/metrics"
	"github.com/gosuda/menuboard/internal/server/middleware"
)

const apiVersion = "1.0.0"

// Deps are the process-wide handles the HTTP layer needs. They are built once
// in main and shared by every request.
type Deps struct {
	Menus    v1.MenuService
	Audit    v1.AuditLog
	Verifier middleware.Verifier

	// Optional. A nil Auth disables password login (session strategy), a nil
	// Uploader makes /upload-image answer 503, and a nil Changes disables the
	// admin WebSocket feed.
	Auth     v1.AuthService
	Uploader v1.ImageUploader
	Changes  ws.Subscriber

	Metrics *metrics.Metrics
	// Ping reports backend health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error

	// PublicAssets is served at / with index.html fallback; AdminAssets is
	// served under /admin/. Either may be nil.
	PublicAssets fs.FS
	AdminAssets  fs.FS
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds background work
// started by middleware.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.AccessHandler(accessLog))
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	router.Get("/health", healthHandler(deps.Ping))
	router.Method(http.MethodGet, metrics.DefaultPath, deps.Metrics.Handler())

	// Mount API routes on /api with four groups:
	// 1. Public reads and frontend config.
	// 2. Rate-limited password login (jwt strategy only).
	// 3. Authenticated admin routes.
	// 4. Authenticated image upload with a capped body.
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			api := humachi.New(r, apiConfig("Menuboard API", true))
			registerPublicRoutes(api, deps, cfg)
		})

		if deps.Auth != nil {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ctx, 5, 10))
				api := humachi.New(r, apiConfig("Menuboard Login API", false))
				registerLoginRoutes(api, deps)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Verifier))
			api := humachi.New(r, apiConfig("Menuboard Admin API", false))
			registerAdminRoutes(api, deps)
		})

		// Uploads get their own group so the body cap applies before huma
		// parses the multipart form.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Verifier))
			r.Use(v1.LimitUploadBody(v1.UploadBodyLimit(deps.Uploader), deps.Metrics))
			api := humachi.New(r, apiConfig("Menuboard Upload API", false))
			registerUploadRoutes(api, deps)
		})

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSONError(w, http.StatusNotFound, "not found")
		})
	})

	if deps.Changes != nil {
		hub := ws.NewHub(deps.Changes, originPatterns(cfg.Server.CORSOrigins))
		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.Auth(deps.Verifier))
			registerWSRoutes(r, hub)
		})
	}

	if deps.AdminAssets != nil {
		router.Get("/admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently).ServeHTTP)
		router.Handle("/admin/*", http.StripPrefix("/admin", http.FileServerFS(deps.AdminAssets)))
	}

	// Serve the public site on all unmatched routes. Registered last so API
	// and WebSocket routes take priority.
	if deps.PublicAssets != nil {
		router.NotFound(spaFileServer(deps.PublicAssets).ServeHTTP)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// apiConfig builds a huma config mounted under /api. Only one API per router
// serves the OpenAPI document and docs. Schema-link hooks are dropped so
// response bodies keep their documented shape.
func apiConfig(title string, docs bool) huma.Config {
	c := huma.DefaultConfig(title, apiVersion)
	c.Servers = []*huma.Server{{URL: "/api"}}
	c.CreateHooks = nil
	if !docs {
		c.OpenAPIPath = ""
		c.DocsPath = ""
		c.SchemasPath = ""
	}
	return c
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("http request")
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("UNAVAILABLE"))
				return
			}
		}
		_, _ = w.Write([]byte("OK"))
	}
}

// originPatterns converts CORS origins into websocket.Accept host patterns.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, o)
	}
	return out
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
