package api

import (
	"net/http"
	"time"

	"github.com/rpupo63/campus-connect-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type adminHandler struct {
	responder   Responder
	logger      zerolog.Logger
	reconciler  *services.Reconciler
	startupTime time.Time
	storeKind   string
}

func newAdminHandler(reconciler *services.Reconciler, startupTime time.Time, storeKind string) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		reconciler:  reconciler,
		startupTime: startupTime,
		storeKind:   storeKind,
	}
}

// health reports liveness
// @Summary Health check
// @Tags Admin
// @Produce json
// @Success 200 {object} HealthResponse "Service is up"
// @Router /health [get]
func (h adminHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, HealthResponse{
			Status: "ok",
			Uptime: time.Since(h.startupTime).Round(time.Second).String(),
			Store:  h.storeKind,
		})
	}
}

// reconcile runs one consistency pass now
// @Summary Run reconciler
// @Description Repairs like counters and comment references that drifted from their source records
// @Tags Admin
// @Produce json
// @Param X-Admin-Token header string false "Admin token when ADMIN_TOKEN is set"
// @Success 200 {object} services.ReconcileReport "Pass report"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /api/admin/reconcile [post]
func (h adminHandler) reconcile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.reconciler.RunOnce(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Int64("projectsChecked", report.ProjectsChecked).Msg("Manual reconcile finished")
		h.responder.WriteJSON(w, report)
	}
}
