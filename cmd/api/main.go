package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"userhub-backend/api/routes"
	"userhub-backend/internal/accounts"
	"userhub-backend/internal/users"
	"userhub-backend/pkg/config"
	"userhub-backend/pkg/db"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/migrate"
	"userhub-backend/pkg/storage/avatars"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	avatarStore, storePinger, err := newAvatarStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap avatar store", err)
		os.Exit(1)
	}

	repo := users.NewRepository(dbClient.DB())

	accountService, err := accounts.NewService(accounts.ServiceParams{
		Repo:           repo,
		AvatarStore:    avatarStore,
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}

	adminService, err := accounts.NewAdminService(accountService)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	if err := seedAdmin(context.Background(), cfg, logg, adminService); err != nil {
		logg.Error(context.Background(), "failed to seed admin account", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			storePinger,
			avatarStore,
			accountService,
			adminService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func newAvatarStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (avatars.Store, avatars.Pinger, error) {
	switch cfg.Avatars.Mode {
	case config.AvatarStorageGCS:
		store, err := avatars.NewGCSStore(ctx, cfg.Avatars, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		store, err := avatars.NewDiskStore(cfg.Avatars.DiskDir)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}

// seedAdmin bootstraps the first admin account outside prod so the privileged
// endpoints are reachable on a fresh database. A seed that already exists is
// not an error.
func seedAdmin(ctx context.Context, cfg *config.Config, logg *logger.Logger, adminService accounts.AdminService) error {
	if cfg.App.IsProd() || !cfg.SeedAdmin.Enabled() {
		return nil
	}

	email := cfg.SeedAdmin.Email
	_, err := adminService.CreateAdmin(ctx, accounts.RegisterRequest{
		Name:     cfg.SeedAdmin.Name,
		Password: cfg.SeedAdmin.Password,
		Email:    &email,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			logg.Info(logg.WithField(ctx, "admin_email", email), "seed admin already present")
			return nil
		}
		return err
	}

	logg.Info(logg.WithField(ctx, "admin_email", email), "seed admin created")
	return nil
}
