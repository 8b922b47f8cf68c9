package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"shunya-backend/internal/config"
	"shunya-backend/internal/logger"
	"shunya-backend/internal/models"
)

// OpenRouterService is the only component that calls the upstream API. It is
// safe for concurrent use; it holds no per-request state.
type OpenRouterService struct {
	client      *openai.Client
	models      config.ModelDefaults
	temperature float32
	maxTokens   int
}

// NewOpenRouterService builds the upstream client. base may be nil, in which
// case http.DefaultTransport is used.
func NewOpenRouterService(cfg *config.Config, base http.RoundTripper) *OpenRouterService {
	clientConfig := openai.DefaultConfig(cfg.OpenRouterAPIKey)
	clientConfig.BaseURL = cfg.OpenRouterBaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout:   cfg.UpstreamTimeout,
		Transport: newOpenRouterTransport(base, cfg.Referer, cfg.AppTitle),
	}

	return &OpenRouterService{
		client:      openai.NewClientWithConfig(clientConfig),
		models:      cfg.Models,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (s *OpenRouterService) Models() config.ModelDefaults {
	return s.models
}

type CompletionRequest struct {
	Model       string
	Fallback    string
	Messages    []openai.ChatCompletionMessage
	Temperature *float32
	MaxTokens   *int
}

type Completion struct {
	Content string
	Model   string
	Usage   *models.Usage
}

// Complete runs one chat completion. When the primary attempt fails with an
// HTTP status and req.Fallback differs from the model used, exactly one more
// attempt is made with the fallback. A transport error on that second attempt
// is dropped in favour of the primary failure.
func (s *OpenRouterService) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	log := logger.WithContext(ctx)

	resp, err := s.attemptCompletion(ctx, req, req.Model)
	if err == nil {
		return completionFrom(resp, req.Model), nil
	}

	var primaryErr *UpstreamError
	if !errors.As(err, &primaryErr) || req.Fallback == "" || req.Model == req.Fallback {
		return nil, err
	}

	log.WithField("status", primaryErr.StatusCode).
		Warnf("model %s failed, retrying once with %s", req.Model, req.Fallback)

	resp, err = s.attemptCompletion(ctx, req, req.Fallback)
	if err == nil {
		return completionFrom(resp, req.Fallback), nil
	}

	var fallbackErr *UpstreamError
	if errors.As(err, &fallbackErr) {
		return nil, fallbackErr
	}

	log.WithError(err).Warn("fallback attempt failed without a response, surfacing primary failure")
	return nil, primaryErr
}

func (s *OpenRouterService) attemptCompletion(ctx context.Context, req CompletionRequest, model string) (openai.ChatCompletionResponse, error) {
	temperature := s.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := s.maxTokens
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = *req.MaxTokens
	}

	capture := &failureCapture{}
	ctx = withCapture(ctx, capture)
	if temperature == 0 {
		ctx = withZeroTemperature(ctx)
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return resp, classifyUpstreamError(err, capture, model)
	}
	return resp, nil
}

func completionFrom(resp openai.ChatCompletionResponse, requested string) *Completion {
	c := &Completion{Model: requested}
	if resp.Model != "" {
		c.Model = resp.Model
	}
	if len(resp.Choices) > 0 {
		c.Content = resp.Choices[0].Message.Content
	}
	if resp.Usage.TotalTokens > 0 {
		c.Usage = &models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return c
}

// Transcribe sends audio to the transcription endpoint. Speech requests are
// never retried with a fallback model.
func (s *OpenRouterService) Transcribe(ctx context.Context, audio []byte, mimeType, model string) (string, error) {
	if len(audio) == 0 {
		return "", &ValidationError{Message: "audio payload is empty"}
	}

	capture := &failureCapture{}
	resp, err := s.client.CreateTranscription(withCapture(ctx, capture), openai.AudioRequest{
		Model:    model,
		FilePath: "recording" + audioExtension(mimeType),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", classifyUpstreamError(err, capture, model)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Speak synthesizes text and returns the encoded audio bytes.
func (s *OpenRouterService) Speak(ctx context.Context, text, voice, model, format string) ([]byte, error) {
	capture := &failureCapture{}
	raw, err := s.client.CreateSpeech(withCapture(ctx, capture), openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	})
	if err != nil {
		return nil, classifyUpstreamError(err, capture, model)
	}
	defer raw.Close()

	audio, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	return audio, nil
}

// classifyUpstreamError separates HTTP failures, which may trigger the
// fallback, from transport failures, which never do.
func classifyUpstreamError(err error, capture *failureCapture, model string) error {
	if capture.status != 0 {
		return &UpstreamError{StatusCode: capture.status, Body: string(capture.body), Model: model}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Model: model}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error(), Model: model}
	}

	return fmt.Errorf("openrouter request failed: %w", err)
}

var audioExtensions = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/wave":  ".wav",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/m4a":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/flac":  ".flac",
}

func audioExtension(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if ext, ok := audioExtensions[base]; ok {
		return ext
	}
	return ".webm"
}

var speechMimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"opus": "audio/ogg",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"pcm":  "audio/pcm",
}

// SpeechMimeType maps a speech response format to its MIME type.
func SpeechMimeType(format string) string {
	if mime, ok := speechMimeTypes[strings.ToLower(format)]; ok {
		return mime
	}
	return "application/octet-stream"
}
