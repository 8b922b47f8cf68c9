package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"shunya-backend/internal/logger"
	"shunya-backend/internal/models"
)

// Recoverer turns a handler panic into a 500 JSON body carrying the panic
// message.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.WithContext(r.Context()).
				WithField("stack", string(debug.Stack())).
				Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)

			writeError(w, http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Internal server error",
				Details: fmt.Sprint(rec),
			})
		}()

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, body models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
