package handlers

import (
	"net/http"

	"shunya-backend/internal/models"
	"shunya-backend/internal/services"
)

type ChatHandler struct {
	study        *services.StudyService
	maxBodyBytes int64
}

func NewChatHandler(study *services.StudyService, maxBodyBytes int64) *ChatHandler {
	return &ChatHandler{study: study, maxBodyBytes: maxBodyBytes}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.Chat(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Vision handles POST /api/vision
func (h *ChatHandler) Vision(w http.ResponseWriter, r *http.Request) {
	var req models.VisionRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.Vision(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
