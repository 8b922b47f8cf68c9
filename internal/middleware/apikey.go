package middleware

import (
	"net/http"

	"shunya-backend/internal/models"
)

// RequireAPIKey rejects proxy requests up front when the upstream credential
// is missing, so no body is read and nothing is sent upstream.
func RequireAPIKey(hasKey bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hasKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, models.ErrorResponse{
				Error:   "OPENROUTER_API_KEY is not configured on the server",
				Details: "Set OPENROUTER_API_KEY in the server environment and restart.",
			})
		})
	}
}
