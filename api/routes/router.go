package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"userhub-backend/api/controllers"
	"userhub-backend/api/middleware"
	"userhub-backend/internal/accounts"
	"userhub-backend/internal/users"
	"userhub-backend/pkg/config"
	"userhub-backend/pkg/db"
	"userhub-backend/pkg/enums"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/storage/avatars"
)

// identityLoader adapts the account service to the auth middleware.
type identityLoader struct {
	svc accounts.Service
}

func (l identityLoader) FindByID(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return l.svc.GetAccount(ctx, id)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	storeP avatars.Pinger,
	avatarStore avatars.Store,
	accountService accounts.Service,
	adminService accounts.AdminService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Timeout(cfg.Server.RequestTimeout, logg),
	)

	authGate := middleware.Auth(cfg.JWT, identityLoader{svc: accountService}, logg)
	adminGate := middleware.RequireRole(enums.UserRoleAdmin, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, storeP))
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", controllers.Register(accountService, avatarStore, logg))
		r.Post("/login", controllers.Login(accountService, logg))

		r.Route("/account", func(r chi.Router) {
			r.Use(authGate)
			r.Get("/", controllers.GetAccount(logg))
			r.Put("/", controllers.UpdateAccount(accountService, avatarStore, logg))
			r.Post("/change-password", controllers.ChangePassword(accountService, logg))
			r.Delete("/", controllers.DeleteAccount(accountService, logg))
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authGate, adminGate)

		r.Get("/users", controllers.AdminListUsers(adminService, logg))
		r.Get("/user", controllers.AdminGetUser(adminService, logg))
		r.Put("/user", controllers.AdminModifyUser(adminService, logg))
		r.Delete("/user", controllers.AdminDeleteUser(adminService, logg))
		r.Post("/createAdmin", controllers.AdminCreateAdmin(adminService, avatarStore, logg))
	})

	return r
}
