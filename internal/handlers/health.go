package handlers

import (
	"fmt"
	"net/http"
	"runtime"

	"shunya-backend/internal/config"
	"shunya-backend/internal/models"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Health reports configuration state without calling upstream.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		OK:               true,
		HasOpenRouterKey: h.cfg.HasAPIKey(),
		Referer:          h.cfg.Referer,
		Defaults:         h.cfg.Models,
		Runtime:          fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})
}
