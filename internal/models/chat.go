package models

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// ValidRole reports whether role is one of the three conversation roles.
func ValidRole(role string) bool {
	switch strings.TrimSpace(role) {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"maxTokens,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the reply from the chat endpoint.
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   *Usage `json:"usage,omitempty"`
}

type VisionRequest struct {
	Image  string `json:"image"` // data URL or https URL
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type VisionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}
