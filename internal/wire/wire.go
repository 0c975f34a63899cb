package wire

import (
	"net/http"

	"salon-booking/internal/adaptor"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/database"
	"salon-booking/pkg/middleware"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired router and the services background jobs need.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

func Wiring(db database.PgxIface, config *utils.Config, deps usecase.Deps, logger *zap.Logger) *App {
	repo := repository.NewRepository(db, logger)
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, db, config, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, db database.PgxIface, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	wireBooking(r, handler.Booking)
	wirePayment(r, handler.Payment)
	wireReconcile(r, handler.Reconcile)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "database unavailable", nil, nil)
				return
			}
		}
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
