package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	v1 "github.com/gosuda/menuboard/internal/api/v1"
	"github.com/gosuda/menuboard/internal/api/ws"
	"github.com/gosuda/menuboard/internal/audit"
	"github.com/gosuda/menuboard/internal/auth"
	"github.com/gosuda/menuboard/internal/config"
	"github.com/gosuda/menuboard/internal/imagestore"
	"github.com/gosuda/menuboard/internal/menu"
	"github.com/gosuda/menuboard/internal/metrics"
	"github.com/gosuda/menuboard/internal/server"
	"github.com/gosuda/menuboard/internal/server/middleware"
	"github.com/gosuda/menuboard/internal/store/postgres"
	redisstore "github.com/gosuda/menuboard/internal/store/redis"
	"github.com/gosuda/menuboard/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	// Redis is optional. Without it mutations are still audited but the admin
	// change feed is off.
	var (
		publisher audit.Publisher
		changes   ws.Subscriber
		ping      = store.Ping
	)
	if cfg.Redis.Addr != "" {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		publisher = pubsub
		changes = pubsub
		ping = func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			return pubsub.Ping(ctx)
		}
	}

	verifier, authSvc, err := buildAuth(ctx, cfg, store)
	if err != nil {
		return err
	}

	var uploader v1.ImageUploader
	if cfg.Storage.Enabled() {
		images, err := imagestore.New(imagestore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
			MaxBytes:  cfg.Storage.MaxUploadBytes,
		})
		if err != nil {
			return err
		}
		uploader = images
	} else {
		log.Warn().Msg("MENU_STORAGE_ENDPOINT not set; image uploads disabled")
	}

	m := metrics.New()
	auditor := audit.NewAuditor(store.Audit(), publisher, m)
	menus := menu.NewService(store.Menus(), auditor, m, cfg.Menu.BestSellerLimit)

	publicAssets, err := web.Public()
	if err != nil {
		return fmt.Errorf("public assets: %w", err)
	}
	adminAssets, err := web.Admin()
	if err != nil {
		return fmt.Errorf("admin assets: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, server.Deps{
		Menus:        menus,
		Audit:        auditor,
		Verifier:     verifier,
		Auth:         authSvc,
		Uploader:     uploader,
		Changes:      changes,
		Metrics:      m,
		Ping:         ping,
		PublicAssets: publicAssets,
		AdminAssets:  adminAssets,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("auth", cfg.Auth.Strategy).
			Bool("uploads", uploader != nil).
			Bool("change_feed", changes != nil).
			Msg("starting server")
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig) (*postgres.Store, error) {
	if cfg.MaxConns < 0 || cfg.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.MaxConns)
	}
	return postgres.New(ctx, cfg.DSN(), int32(cfg.MaxConns)) //nolint:gosec // bounds checked above
}

// buildAuth returns the verifier for the configured strategy. Password login
// only exists for the jwt strategy; the session strategy leaves it nil.
func buildAuth(ctx context.Context, cfg *config.Config, store *postgres.Store) (middleware.Verifier, v1.AuthService, error) {
	switch cfg.Auth.Strategy {
	case config.AuthStrategySession:
		return auth.NewSessionVerifier(cfg.Supabase.URL, cfg.Supabase.AnonKey, nil), nil, nil
	default:
		svc := auth.NewService(store.Users(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if cfg.Auth.AdminEmail != "" {
			if err := svc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
				return nil, nil, err
			}
		}
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret), svc, nil
	}
}
