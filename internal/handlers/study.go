package handlers

import (
	"net/http"

	"shunya-backend/internal/models"
	"shunya-backend/internal/services"
)

// StudyHandler serves the structured-output endpoints.
type StudyHandler struct {
	study        *services.StudyService
	maxBodyBytes int64
}

func NewStudyHandler(study *services.StudyService, maxBodyBytes int64) *StudyHandler {
	return &StudyHandler{study: study, maxBodyBytes: maxBodyBytes}
}

func (h *StudyHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.Quiz(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StudyHandler) MindMap(w http.ResponseWriter, r *http.Request) {
	var req models.MindMapRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.MindMap(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StudyHandler) Visualize(w http.ResponseWriter, r *http.Request) {
	var req models.VisualizeRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.Visualize(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
