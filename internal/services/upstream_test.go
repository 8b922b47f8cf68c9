package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shunya-backend/internal/config"
)

// fakeOpenRouter is an in-process stand-in for the upstream API. Models listed
// in failures answer with the given status; everything else succeeds.
type fakeOpenRouter struct {
	mu       sync.Mutex
	models   []string
	headers  []http.Header
	bodies   []map[string]json.RawMessage
	failures map[string]int
	content  string
	server   *httptest.Server
}

func newFakeOpenRouter(t *testing.T, content string) *fakeOpenRouter {
	t.Helper()
	f := &fakeOpenRouter{failures: map[string]int{}, content: content}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOpenRouter) serve(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	json.NewDecoder(r.Body).Decode(&fields)
	var model string
	json.Unmarshal(fields["model"], &model)

	f.mu.Lock()
	f.models = append(f.models, model)
	f.headers = append(f.headers, r.Header.Clone())
	f.bodies = append(f.bodies, fields)
	status, failing := f.failures[model]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"message":"model unavailable","code":%d}}`, status)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "gen-1",
		"object": "chat.completion",
		"model":  model,
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": f.content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (f *fakeOpenRouter) fail(model string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[model] = status
}

func (f *fakeOpenRouter) header(i int) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[i]
}

// field returns the raw JSON of key in the i-th request body and whether it
// was present.
func (f *fakeOpenRouter) field(i int, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.bodies[i][key]
	return string(raw), ok
}

func (f *fakeOpenRouter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.models...)
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		OpenRouterAPIKey:  "sk-or-test",
		OpenRouterBaseURL: baseURL,
		Referer:           "https://shunya.test",
		AppTitle:          "SHUNYA AI",
		Temperature:       0.7,
		MaxTokens:         256,
		Models: config.ModelDefaults{
			Text:           "primary/text",
			TextFallback:   "fallback/text",
			Vision:         "primary/vision",
			VisionFallback: "fallback/vision",
			STT:            "openai/whisper-1",
			TTS:            "openai/gpt-4o-mini-tts",
			TTSVoice:       "alloy",
			TTSFormat:      "mp3",
		},
	}
}
