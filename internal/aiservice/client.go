// Package aiservice is the typed HTTP client UI code uses to reach the proxy
// endpoints.
package aiservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shunya-backend/internal/models"
)

// Apology is shown in place of a reply when the chat endpoint fails.
const Apology = "Sorry, I couldn't reach the study assistant right now. Please try again in a moment."

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
	Raw        string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the backend at baseURL (for example
// "http://localhost:8080"). A nil httpClient gets a two minute timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.post(ctx, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reply sends the conversation and returns the assistant text, or Apology on
// any failure.
func (c *Client) Reply(ctx context.Context, messages []models.ChatMessage) string {
	resp, err := c.Chat(ctx, models.ChatRequest{Messages: messages})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return Apology
	}
	return resp.Content
}

func (c *Client) Vision(ctx context.Context, req models.VisionRequest) (*models.VisionResponse, error) {
	var resp models.VisionResponse
	if err := c.post(ctx, "/api/vision", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Quiz(ctx context.Context, req models.GenerateQuizRequest) ([]models.QuizQuestion, error) {
	var resp models.QuizResponse
	if err := c.post(ctx, "/api/quiz", req, &resp); err != nil {
		return nil, err
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(resp.Questions, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode quiz questions: %w", err)
	}
	return questions, nil
}

func (c *Client) MindMap(ctx context.Context, req models.MindMapRequest) ([]models.MindMapNode, error) {
	var resp models.MindMapResponse
	if err := c.post(ctx, "/api/mindmap", req, &resp); err != nil {
		return nil, err
	}

	var nodes []models.MindMapNode
	if err := json.Unmarshal(resp.Nodes, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode mind map nodes: %w", err)
	}
	return nodes, nil
}

func (c *Client) Visualize(ctx context.Context, req models.VisualizeRequest) (*models.VisualizationPayload, error) {
	var resp models.VisualizationPayload
	if err := c.post(ctx, "/api/visualize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Transcribe uploads raw audio bytes.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (*models.STTResponse, error) {
	var resp models.STTResponse
	req := models.STTRequest{Audio: base64.StdEncoding.EncodeToString(audio), MimeType: mimeType}
	if err := c.post(ctx, "/api/stt", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Speak returns the synthesized audio already decoded from base64.
func (c *Client) Speak(ctx context.Context, req models.TTSRequest) ([]byte, *models.TTSResponse, error) {
	var resp models.TTSResponse
	if err := c.post(ctx, "/api/tts", req, &resp); err != nil {
		return nil, nil, err
	}

	audio, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode speech audio: %w", err)
	}
	return audio, &resp, nil
}

func (c *Client) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error) {
	var resp models.ExtractResponse
	if err := c.post(ctx, "/api/extract", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var resp models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
		Raw     string          `json:"raw"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		apiErr.Message = http.StatusText(status)
		apiErr.Raw = string(data)
		return apiErr
	}

	apiErr.Message = body.Error
	apiErr.Details = body.Details
	apiErr.Raw = body.Raw
	return apiErr
}
