// internal/handler/campaign_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/controller"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/service"
)

// CampaignHandler serves campaign reads that join the database row with the live sheet.
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *zap.Logger
}

func NewCampaignHandler(svc *service.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{Service: svc, Logger: log}
}

func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		if controller.StatusFor(err) == http.StatusInternalServerError {
			logger.OrNop(h.Logger).Error("fetching campaign failed", zap.Int("campaign_id", id), zap.Error(err))
		}
		controller.WriteError(w, err)
		return
	}

	controller.WriteJSON(w, http.StatusOK, details)
}

// NewRouter mounts every HTTP route. A nil metrics handler leaves /metrics unmounted.
func NewRouter(c *controller.CampaignController, h *CampaignHandler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	// Campaign routes
	r.Post("/campaigns", c.CreateCampaign)
	r.Get("/campaigns", c.ListCampaigns)
	r.Get("/campaigns/{id}", h.GetCampaignHandlerWithStats)
	r.Patch("/campaigns/{id}/status", c.UpdateStatus)
	r.Post("/campaigns/{id}/leads", c.AddLeads)
	r.Post("/campaigns/{id}/{kind}", c.EnqueueJob)

	r.Get("/jobs/{id}", c.GetJob)
	return r
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	log := logger.OrNop(l)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
