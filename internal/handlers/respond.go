package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"shunya-backend/internal/logger"
	"shunya-backend/internal/models"
	"shunya-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, details interface{}) {
	writeJSON(w, status, models.ErrorResponse{Error: message, Details: details})
}

// decodeJSON reads at most maxBytes of JSON into dst. It writes the 400 and
// returns false when the body cannot be decoded.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.WithContext(r.Context()).WithError(err)

	var (
		validationErr *services.ValidationError
		upstreamErr   *services.UpstreamError
		parseErr      *services.ParseError
		fetchErr      *services.FetchError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message, nil)
	case errors.As(err, &upstreamErr):
		log.WithField("status", upstreamErr.StatusCode).Warn("upstream request failed")
		writeError(w, upstreamErr.Status(), "Upstream request failed", upstreamErr.Details())
	case errors.As(err, &parseErr):
		log.Warn("model response could not be parsed")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error: "Model response could not be parsed",
			Raw:   parseErr.Raw,
		})
	case errors.As(err, &fetchErr):
		log.Warn("source fetch failed")
		writeError(w, http.StatusBadGateway, "Could not fetch source", fetchErr.Error())
	default:
		log.Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found", nil)
}
