package httphandler

import (
	"context"
	"net/http"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/entities"
)

const healthCheckTimeout = 5 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB         Pinger
	AppTracker apptracker.AppTracker
}

func (h HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		log.Ctx(ctx).Errorf("health check: pinging the database: %v", err)
		httpjson.RenderStatus(w, http.StatusServiceUnavailable, entities.HealthResponse{
			Status:   entities.Unhealthy,
			Database: entities.Unhealthy,
			Error:    "database is unreachable",
		}, httpjson.JSON)
		return
	}

	httpjson.Render(w, entities.HealthResponse{
		Status:   entities.Healthy,
		Database: entities.Healthy,
	}, httpjson.JSON)
}
