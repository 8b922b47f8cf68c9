package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL  = "https://openrouter.ai/api/v1"
	DefaultReferer  = "http://localhost:5173"
	DefaultAppTitle = "SHUNYA AI"
)

type Config struct {
	// Server
	Port string
	Env  string

	// OpenRouter
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	Referer           string
	AppTitle          string
	UpstreamTimeout   time.Duration

	// Models
	Models ModelDefaults

	// Generation
	Temperature float32
	MaxTokens   int

	// HTTP
	AllowedOrigin string
	MaxBodyBytes  int64

	// Rate limiting of proxy routes; RateLimit <= 0 disables it.
	RateLimit       int
	RateLimitWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// ModelDefaults holds the per-modality model ids. The fallback ids are used
// for the single retry after a failed primary attempt.
type ModelDefaults struct {
	Text           string `json:"text"`
	TextFallback   string `json:"textFallback"`
	Vision         string `json:"vision"`
	VisionFallback string `json:"visionFallback"`
	STT            string `json:"stt"`
	TTS            string `json:"tts"`
	TTSVoice       string `json:"ttsVoice"`
	TTSFormat      string `json:"ttsFormat"`
}

// HasAPIKey reports whether the upstream credential is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.OpenRouterAPIKey) != ""
}

// Load reads .env (if present), an optional YAML file and the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		Env:               v.GetString("ENV"),
		OpenRouterAPIKey:  strings.TrimSpace(v.GetString("OPENROUTER_API_KEY")),
		OpenRouterBaseURL: strings.TrimRight(v.GetString("OPENROUTER_BASE_URL"), "/"),
		Referer:           resolveReferer(v.GetString("APP_REFERER"), v.GetString("VERCEL_URL")),
		AppTitle:          v.GetString("APP_TITLE"),
		UpstreamTimeout:   v.GetDuration("UPSTREAM_TIMEOUT"),
		Models: ModelDefaults{
			Text:           v.GetString("TEXT_MODEL"),
			TextFallback:   v.GetString("TEXT_FALLBACK_MODEL"),
			Vision:         v.GetString("VISION_MODEL"),
			VisionFallback: v.GetString("VISION_FALLBACK_MODEL"),
			STT:            v.GetString("STT_MODEL"),
			TTS:            v.GetString("TTS_MODEL"),
			TTSVoice:       v.GetString("TTS_VOICE"),
			TTSFormat:      v.GetString("TTS_FORMAT"),
		},
		Temperature:   float32(v.GetFloat64("TEMPERATURE")),
		MaxTokens:     v.GetInt("MAX_TOKENS"),
		AllowedOrigin: v.GetString("ALLOWED_ORIGIN"),
		MaxBodyBytes:  v.GetInt64("MAX_BODY_BYTES"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),

		RateLimit:       v.GetInt("RATE_LIMIT"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
	}

	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("MAX_TOKENS must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.RateLimit > 0 && cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT is set")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("OPENROUTER_API_KEY", "")
	v.SetDefault("OPENROUTER_BASE_URL", DefaultBaseURL)
	v.SetDefault("APP_REFERER", "")
	v.SetDefault("VERCEL_URL", "")
	v.SetDefault("APP_TITLE", DefaultAppTitle)
	v.SetDefault("UPSTREAM_TIMEOUT", time.Duration(0))
	v.SetDefault("TEXT_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("TEXT_FALLBACK_MODEL", "meta-llama/llama-3.1-8b-instruct")
	v.SetDefault("VISION_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("VISION_FALLBACK_MODEL", "google/gemini-2.0-flash-001")
	v.SetDefault("STT_MODEL", "openai/whisper-1")
	v.SetDefault("TTS_MODEL", "openai/gpt-4o-mini-tts")
	v.SetDefault("TTS_VOICE", "alloy")
	v.SetDefault("TTS_FORMAT", "mp3")
	v.SetDefault("TEMPERATURE", 0.7)
	v.SetDefault("MAX_TOKENS", 2048)
	v.SetDefault("ALLOWED_ORIGIN", "*")
	v.SetDefault("MAX_BODY_BYTES", 25<<20)
	v.SetDefault("RATE_LIMIT", 0)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// resolveReferer picks the value sent as HTTP-Referer upstream.
func resolveReferer(explicit, vercelURL string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if vercelURL = strings.TrimSpace(vercelURL); vercelURL != "" {
		if strings.HasPrefix(vercelURL, "http://") || strings.HasPrefix(vercelURL, "https://") {
			return vercelURL
		}
		return "https://" + vercelURL
	}
	return DefaultReferer
}
