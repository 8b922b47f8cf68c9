package handlers

import (
	"net/http"

	"shunya-backend/internal/models"
	"shunya-backend/internal/services"
)

// SpeechHandler serves speech-to-text and text-to-speech. Neither endpoint
// uses a fallback model.
type SpeechHandler struct {
	study        *services.StudyService
	maxBodyBytes int64
}

func NewSpeechHandler(study *services.StudyService, maxBodyBytes int64) *SpeechHandler {
	return &SpeechHandler{study: study, maxBodyBytes: maxBodyBytes}
}

func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req models.STTRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.Transcribe(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SpeechHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req models.TTSRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	resp, err := h.study.Speak(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
