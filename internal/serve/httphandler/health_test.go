package httphandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_GetHealth(t *testing.T) {
	testCases := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "🟢database_reachable",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"healthy","database":"healthy"}`,
		},
		{
			name:           "🔴database_unreachable",
			pingErr:        errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"unhealthy","database":"unhealthy","error":"database is unreachable"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := HealthHandler{
				DB: pingerFunc(func(ctx context.Context) error {
					_, hasDeadline := ctx.Deadline()
					assert.True(t, hasDeadline)
					return tc.pingErr
				}),
				AppTracker: &apptracker.MockAppTracker{},
			}

			rr := httptest.NewRecorder()
			handler.GetHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}
