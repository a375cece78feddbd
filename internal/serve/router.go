package serve

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/serve/httperror"
	"github.com/suimigrate/migrate-backend/internal/serve/httphandler"
	"github.com/suimigrate/migrate-backend/internal/serve/middleware"
)

// NewHandler creates the main HTTP handler with all routes configured
func NewHandler(deps HandlerDependencies) http.Handler {
	container := deps.ServiceContainer

	mux := supporthttp.NewAPIMux(log.DefaultLogger)
	mux.NotFound(httperror.ErrorHandler{Error: httperror.NotFound}.ServeHTTP)
	mux.MethodNotAllowed(httperror.ErrorHandler{Error: httperror.MethodNotAllowed}.ServeHTTP)

	setupMiddleware(mux, container)
	setupPublicRoutes(mux, container)
	setupSnapshotRoutes(mux, container)

	return mux
}

func setupMiddleware(mux *chi.Mux, container ServiceContainer) {
	mux.Use(middleware.MetricsMiddleware(container.GetMetricsService()))
	mux.Use(middleware.RecoverHandler(container.GetAppTracker()))
}

func setupPublicRoutes(mux *chi.Mux, container ServiceContainer) {
	mux.Get("/health", httphandler.HealthHandler{
		DB:         container.GetDatabaseProvider().GetConnectionPool(),
		AppTracker: container.GetAppTracker(),
	}.GetHealth)

	mux.Get("/api-metrics", promhttp.HandlerFor(
		container.GetMetricsService().GetRegistry(),
		promhttp.HandlerOpts{},
	).ServeHTTP)
}

func setupSnapshotRoutes(mux *chi.Mux, container ServiceContainer) {
	handler := &httphandler.SnapshotHandler{
		SnapshotService:      container.GetSnapshotService(),
		SnapshotQueryService: container.GetSnapshotQueryService(),
		AppTracker:           container.GetAppTracker(),
	}

	mux.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminGuard(container.GetAdminAddresses()))
			r.Post("/snapshot", handler.CreateSnapshot)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", handler.ListSnapshots)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.GetSnapshot)
				r.Get("/holders", handler.ListHolders)
				r.Get("/holders/{address}", handler.GetHolder)
			})
		})
	})
}
