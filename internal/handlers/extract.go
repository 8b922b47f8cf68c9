package handlers

import (
	"net/http"

	"shunya-backend/internal/models"
	"shunya-backend/internal/services"
)

type ExtractHandler struct {
	extract      *services.ExtractService
	maxBodyBytes int64
}

func NewExtractHandler(extract *services.ExtractService, maxBodyBytes int64) *ExtractHandler {
	return &ExtractHandler{extract: extract, maxBodyBytes: maxBodyBytes}
}

// Extract handles POST /api/extract. It works without the upstream
// credential.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.extract.Extract(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
