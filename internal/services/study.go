package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"shunya-backend/internal/config"
	"shunya-backend/internal/models"
)

const (
	defaultNumQuestions = 5
	maxNumQuestions     = 20
	defaultDifficulty   = "medium"
)

// Upstream is the subset of OpenRouterService the study flows rely on.
type Upstream interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	Transcribe(ctx context.Context, audio []byte, mimeType, model string) (string, error)
	Speak(ctx context.Context, text, voice, model, format string) ([]byte, error)
}

// StudyService validates requests, picks models and reshapes completions for
// every proxy endpoint.
type StudyService struct {
	upstream Upstream
	models   config.ModelDefaults
}

func NewStudyService(upstream Upstream, defaults config.ModelDefaults) *StudyService {
	return &StudyService{upstream: upstream, models: defaults}
}

func pick(requested, fallback string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	return fallback
}

func (s *StudyService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Message: "messages must be a non-empty array"}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	hasSystem := false
	for i, m := range req.Messages {
		if !models.ValidRole(m.Role) {
			return nil, &ValidationError{Message: fmt.Sprintf("messages[%d] has invalid role %q", i, m.Role)}
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("messages[%d] has empty content", i)}
		}
		role := strings.TrimSpace(m.Role)
		if role == models.RoleSystem {
			hasSystem = true
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if !hasSystem {
		messages = append([]openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt}}, messages...)
	}

	c, err := s.upstream.Complete(ctx, CompletionRequest{
		Model:       pick(req.Model, s.models.Text),
		Fallback:    s.models.TextFallback,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{Content: c.Content, Model: c.Model, Usage: c.Usage}, nil
}

func (s *StudyService) Vision(ctx context.Context, req models.VisionRequest) (*models.VisionResponse, error) {
	image := strings.TrimSpace(req.Image)
	prompt := strings.TrimSpace(req.Prompt)
	if image == "" || prompt == "" {
		return nil, &ValidationError{Message: "image and prompt are required"}
	}

	c, err := s.upstream.Complete(ctx, CompletionRequest{
		Model:    pick(req.Model, s.models.Vision),
		Fallback: s.models.VisionFallback,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: image}},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &models.VisionResponse{Content: c.Content, Model: c.Model}, nil
}

func (s *StudyService) Quiz(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, &ValidationError{Message: "content is required"}
	}

	numQuestions := req.NumQuestions
	switch {
	case numQuestions == 0:
		numQuestions = defaultNumQuestions
	case numQuestions < 1:
		numQuestions = 1
	case numQuestions > maxNumQuestions:
		numQuestions = maxNumQuestions
	}

	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	switch difficulty {
	case "easy", "medium", "hard":
	default:
		difficulty = defaultDifficulty
	}

	text, err := s.completeText(ctx, req.Model, buildQuizPrompt(content, numQuestions, difficulty))
	if err != nil {
		return nil, err
	}

	questions, err := QuizQuestions(text)
	if err != nil {
		return nil, err
	}
	return &models.QuizResponse{Questions: questions}, nil
}

func (s *StudyService) MindMap(ctx context.Context, req models.MindMapRequest) (*models.MindMapResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, &ValidationError{Message: "content is required"}
	}

	text, err := s.completeText(ctx, req.Model, buildMindMapPrompt(content))
	if err != nil {
		return nil, err
	}

	nodes, err := MindMapNodes(text)
	if err != nil {
		return nil, err
	}
	return &models.MindMapResponse{Nodes: nodes}, nil
}

func (s *StudyService) Visualize(ctx context.Context, req models.VisualizeRequest) (*models.VisualizationPayload, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, &ValidationError{Message: "message is required"}
	}

	text, err := s.completeText(ctx, req.Model, buildVisualizePrompt(message))
	if err != nil {
		return nil, err
	}

	return NormalizeVisualization(text)
}

// completeText sends a single user prompt on the text modality.
func (s *StudyService) completeText(ctx context.Context, model, prompt string) (string, error) {
	c, err := s.upstream.Complete(ctx, CompletionRequest{
		Model:    pick(model, s.models.Text),
		Fallback: s.models.TextFallback,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return c.Content, nil
}

func (s *StudyService) Transcribe(ctx context.Context, req models.STTRequest) (*models.STTResponse, error) {
	audio, dataURLMime, err := decodePayload(req.Audio, "audio")
	if err != nil {
		return nil, err
	}

	mimeType := pick(req.MimeType, dataURLMime)
	model := pick(req.Model, s.models.STT)

	text, err := s.upstream.Transcribe(ctx, audio, mimeType, model)
	if err != nil {
		return nil, err
	}
	return &models.STTResponse{Text: text, Model: model}, nil
}

func (s *StudyService) Speak(ctx context.Context, req models.TTSRequest) (*models.TTSResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Message: "text is required"}
	}

	model := pick(req.Model, s.models.TTS)
	voice := pick(req.Voice, s.models.TTSVoice)
	format := strings.ToLower(pick(req.Format, s.models.TTSFormat))

	audio, err := s.upstream.Speak(ctx, text, voice, model, format)
	if err != nil {
		return nil, err
	}

	return &models.TTSResponse{
		Audio:    base64.StdEncoding.EncodeToString(audio),
		MimeType: SpeechMimeType(format),
		Model:    model,
		Voice:    voice,
		Format:   format,
	}, nil
}
