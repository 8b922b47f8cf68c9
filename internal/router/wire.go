package router

import (
	"net/http"

	"shunya-backend/internal/config"
	"shunya-backend/internal/handlers"
	"shunya-backend/internal/services"
)

// BuildHandlers constructs the service graph. base is the transport under
// the OpenRouter client; nil means http.DefaultTransport.
func BuildHandlers(cfg *config.Config, base http.RoundTripper) Handlers {
	openRouter := services.NewOpenRouterService(cfg, base)
	study := services.NewStudyService(openRouter, cfg.Models)
	extract := services.NewExtractService(services.NewFileExtractService(), services.NewYouTubeService())

	return Handlers{
		Chat:    handlers.NewChatHandler(study, cfg.MaxBodyBytes),
		Study:   handlers.NewStudyHandler(study, cfg.MaxBodyBytes),
		Speech:  handlers.NewSpeechHandler(study, cfg.MaxBodyBytes),
		Extract: handlers.NewExtractHandler(extract, cfg.MaxBodyBytes),
		Health:  handlers.NewHealthHandler(cfg),
	}
}
