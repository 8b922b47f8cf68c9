// Package workspace is one student's session: the chat transcript and the
// canvas beside it. A Workspace is driven by a single goroutine.
package workspace

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"shunya-backend/internal/aiservice"
	"shunya-backend/internal/canvas"
	"shunya-backend/internal/logger"
	"shunya-backend/internal/models"
)

var ErrEmptyMessage = errors.New("workspace: message is empty")

// Assistant is the subset of the AI service a workspace calls.
type Assistant interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	Quiz(ctx context.Context, req models.GenerateQuizRequest) ([]models.QuizQuestion, error)
	MindMap(ctx context.Context, req models.MindMapRequest) ([]models.MindMapNode, error)
	Visualize(ctx context.Context, req models.VisualizeRequest) (*models.VisualizationPayload, error)
	Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error)
}

type Workspace struct {
	ai         Assistant
	canvas     *canvas.Canvas
	transcript []models.ChatMessage
	model      string
}

func New(ai Assistant) *Workspace {
	return &Workspace{ai: ai, canvas: canvas.New()}
}

// SetModel overrides the text model for later chat turns; "" restores the
// server default.
func (w *Workspace) SetModel(model string) {
	w.model = strings.TrimSpace(model)
}

func (w *Workspace) Canvas() *canvas.Canvas {
	return w.canvas
}

func (w *Workspace) Transcript() []models.ChatMessage {
	return append([]models.ChatMessage(nil), w.transcript...)
}

// Send appends the user message, asks the assistant and appends its reply.
// On failure the apology is appended instead and the error is returned with
// it. A trailing ```json artifact with a "nodes" array is merged into the
// canvas and removed from the stored reply; merged reports how many nodes it
// carried. A reply left empty is stored as a canvas notice (after an
// artifact) or as the apology, so the transcript never holds an empty turn.
func (w *Workspace) Send(ctx context.Context, text string) (reply string, merged int, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, ErrEmptyMessage
	}
	w.transcript = append(w.transcript, models.ChatMessage{Role: models.RoleUser, Content: text})

	resp, err := w.ai.Chat(ctx, models.ChatRequest{Messages: w.Transcript(), Model: w.model})
	if err != nil {
		w.appendAssistant(aiservice.Apology)
		return aiservice.Apology, 0, fmt.Errorf("chat failed: %w", err)
	}

	reply = resp.Content
	if body, nodes, ok := splitArtifact(resp.Content); ok {
		w.canvas.Merge(nodes)
		merged = len(nodes)
		reply = body
		logger.WithContext(ctx).WithField("nodes", merged).Debug("Merged chat artifact into canvas")
		if reply == "" {
			reply = canvasNotice(merged)
		}
	}
	if strings.TrimSpace(reply) == "" {
		reply = aiservice.Apology
	}

	w.appendAssistant(reply)
	return reply, merged, nil
}

func canvasNotice(n int) string {
	switch n {
	case 0:
		return "Cleared the generated nodes from the canvas."
	case 1:
		return "Added 1 node to the canvas."
	}
	return fmt.Sprintf("Added %d nodes to the canvas.", n)
}

func (w *Workspace) appendAssistant(content string) {
	w.transcript = append(w.transcript, models.ChatMessage{Role: models.RoleAssistant, Content: content})
}

// MindMap generates nodes for content and merges them into the canvas.
func (w *Workspace) MindMap(ctx context.Context, content string) ([]canvas.Node, error) {
	generated, err := w.ai.MindMap(ctx, models.MindMapRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("mind map failed: %w", err)
	}

	batch := make([]canvas.Node, 0, len(generated))
	for _, g := range generated {
		batch = append(batch, canvas.Node{
			ID:          g.ID,
			Type:        g.Type,
			Title:       g.Title,
			Connections: []string(g.Children),
		})
	}
	w.canvas.Merge(batch)
	return w.canvas.Nodes(), nil
}

func (w *Workspace) Quiz(ctx context.Context, content string, numQuestions int, difficulty string) ([]models.QuizQuestion, error) {
	return w.ai.Quiz(ctx, models.GenerateQuizRequest{
		Content:      content,
		NumQuestions: numQuestions,
		Difficulty:   difficulty,
	})
}

func (w *Workspace) Visualize(ctx context.Context, message string) (*models.VisualizationPayload, error) {
	return w.ai.Visualize(ctx, models.VisualizeRequest{Message: message})
}

// AttachFile extracts text from an uploaded document and adds it as a file
// node titled after the document.
func (w *Workspace) AttachFile(ctx context.Context, filename string, data []byte) (canvas.Node, error) {
	return w.attach(ctx, models.ExtractRequest{
		File:     base64.StdEncoding.EncodeToString(data),
		Filename: filename,
	})
}

// AttachURL adds a file node from a YouTube transcript.
func (w *Workspace) AttachURL(ctx context.Context, url string) (canvas.Node, error) {
	return w.attach(ctx, models.ExtractRequest{URL: url})
}

func (w *Workspace) attach(ctx context.Context, req models.ExtractRequest) (canvas.Node, error) {
	extracted, err := w.ai.Extract(ctx, req)
	if err != nil {
		return canvas.Node{}, fmt.Errorf("extraction failed: %w", err)
	}
	return w.canvas.AddFile(extracted.Title, extracted.Text), nil
}

const (
	fenceOpen  = "```json"
	fenceClose = "```"
)

// splitArtifact finds a ```json fenced block that ends the text and holds an
// object with a "nodes" array. It returns the text before the block and the
// decoded nodes.
func splitArtifact(text string) (string, []canvas.Node, bool) {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if !strings.HasSuffix(trimmed, fenceClose) {
		return text, nil, false
	}
	body := strings.TrimSuffix(trimmed, fenceClose)

	start := strings.LastIndex(body, fenceOpen)
	if start < 0 {
		return text, nil, false
	}

	var artifact struct {
		Nodes []canvas.Node `json:"nodes"`
	}
	payload := strings.TrimSpace(body[start+len(fenceOpen):])
	if err := json.Unmarshal([]byte(payload), &artifact); err != nil || artifact.Nodes == nil {
		return text, nil, false
	}
	return strings.TrimSpace(body[:start]), artifact.Nodes, true
}
