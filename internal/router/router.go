package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"shunya-backend/internal/config"
	"shunya-backend/internal/handlers"
	"shunya-backend/internal/middleware"
)

type Handlers struct {
	Chat    *handlers.ChatHandler
	Study   *handlers.StudyHandler
	Speech  *handlers.SpeechHandler
	Extract *handlers.ExtractHandler
	Health  *handlers.HealthHandler
}

func New(cfg *config.Config, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	r.MethodNotAllowed(handlers.MethodNotAllowed)
	r.NotFound(handlers.NotFound)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Post("/extract", h.Extract.Extract)

		// ──── OpenRouter proxy routes ────
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIKey(cfg.HasAPIKey()))
			r.Use(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow).Middleware)

			r.Post("/chat", h.Chat.Chat)
			r.Post("/vision", h.Chat.Vision)
			r.Post("/quiz", h.Study.Quiz)
			r.Post("/mindmap", h.Study.MindMap)
			r.Post("/visualize", h.Study.Visualize)
			r.Post("/stt", h.Speech.Transcribe)
			r.Post("/tts", h.Speech.Speak)
		})
	})

	return r
}

// NewDefault wires every service and handler from cfg.
func NewDefault(cfg *config.Config) *chi.Mux {
	return New(cfg, BuildHandlers(cfg, nil))
}
