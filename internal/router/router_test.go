package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shunya-backend/internal/aiservice"
	"shunya-backend/internal/config"
	"shunya-backend/internal/logger"
	"shunya-backend/internal/models"
	"shunya-backend/internal/workspace"
)

var proxyEndpoints = []string{"/api/chat", "/api/vision", "/api/quiz", "/api/mindmap", "/api/visualize", "/api/stt", "/api/tts"}

// upstream counts calls and records the model of each chat completion.
type upstream struct {
	mu       sync.Mutex
	calls    int
	models   []string
	failures map[string]int
	content  string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Model string `json:"model"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	u.mu.Lock()
	u.calls++
	u.models = append(u.models, body.Model)
	status, failing := u.failures[body.Model]
	content := u.content
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"message":"%s is down","code":%d}}`, body.Model, status)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "gen-1",
		"object":  "chat.completion",
		"model":   body.Model,
		"choices": []map[string]interface{}{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func (u *upstream) fail(model string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[model] = status
}

func (u *upstream) snapshot() (int, []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls, append([]string(nil), u.models...)
}

func (u *upstream) callCount() int {
	n, _ := u.snapshot()
	return n
}

func newTestServer(t *testing.T, apiKey, content string, opts ...func(*config.Config)) (*httptest.Server, *upstream) {
	t.Helper()
	logger.SetOutput(&bytes.Buffer{})

	up := &upstream{failures: map[string]int{}, content: content}
	upServer := httptest.NewServer(up)
	t.Cleanup(upServer.Close)

	cfg := &config.Config{
		OpenRouterAPIKey:  apiKey,
		OpenRouterBaseURL: upServer.URL,
		Referer:           "http://localhost:5173",
		AppTitle:          "SHUNYA AI",
		Temperature:       0.7,
		MaxTokens:         256,
		AllowedOrigin:     "*",
		MaxBodyBytes:      1 << 20,
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
	for _, opt := range opts {
		opt(cfg)
	}

	srv := httptest.NewServer(NewDefault(cfg))
	t.Cleanup(srv.Close)
	return srv, up
}

func post(t *testing.T, srv *httptest.Server, path string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}

	resp, err := http.Post(srv.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]json.RawMessage
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func errorMessage(body map[string]json.RawMessage) string {
	var msg string
	json.Unmarshal(body["error"], &msg)
	return msg
}

func TestOptionsIsAlwaysOK(t *testing.T) {
	srv, up := newTestServer(t, "", "")

	for _, path := range append(proxyEndpoints, "/api/health", "/api/extract") {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+path, strings.NewReader("{broken"))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS %s failed: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("OPTIONS %s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	if n := up.callCount(); n != 0 {
		t.Errorf("Expected no upstream calls, got %d", n)
	}
}

func TestNonPostIsMethodNotAllowed(t *testing.T) {
	srv, up := newTestServer(t, "sk-or-test", "")

	type request struct{ method, path string }
	var cases []request
	for _, path := range append(proxyEndpoints, "/api/extract") {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			cases = append(cases, request{method, path})
		}
	}
	cases = append(cases, request{http.MethodPost, "/api/health"}, request{http.MethodPut, "/api/health"})

	for _, tc := range cases {
		req, _ := http.NewRequest(tc.method, srv.URL+tc.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s failed: %v", tc.method, tc.path, err)
		}
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, resp.StatusCode)
		}
		if got := strings.TrimSpace(buf.String()); got != `{"error":"Method not allowed"}` {
			t.Errorf("%s %s: unexpected body %s", tc.method, tc.path, got)
		}
	}

	if n := up.callCount(); n != 0 {
		t.Errorf("Expected no upstream calls, got %d", n)
	}
}

func TestMissingKeyMakesNoUpstreamCalls(t *testing.T) {
	srv, up := newTestServer(t, "", "unused")

	for _, path := range proxyEndpoints {
		resp, body := post(t, srv, path, `{"messages":[{"role":"user","content":"hi"}]}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		if !strings.Contains(errorMessage(body), "OPENROUTER_API_KEY") {
			t.Errorf("%s: expected credential guidance, got %q", path, errorMessage(body))
		}
	}

	if n := up.callCount(); n != 0 {
		t.Errorf("Expected zero upstream calls, got %d", n)
	}
}

func TestRateLimitedProxyRoutes(t *testing.T) {
	srv, up := newTestServer(t, "sk-or-test", "hello", func(cfg *config.Config) {
		cfg.RateLimit = 2
		cfg.RateLimitWindow = time.Minute
	})

	chat := `{"messages":[{"role":"user","content":"hi"}]}`
	for i := 0; i < 2; i++ {
		if resp, _ := post(t, srv, "/api/chat", chat); resp.StatusCode != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	resp, body := post(t, srv, "/api/chat", chat)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", resp.StatusCode)
	}
	if errorMessage(body) != "Too many requests" {
		t.Errorf("Unexpected error %q", errorMessage(body))
	}
	if n := up.callCount(); n != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", n)
	}

	health, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("Expected health outside the limit, got %d", health.StatusCode)
	}
}

func TestValidationFailuresAre400(t *testing.T) {
	srv, up := newTestServer(t, "sk-or-test", "unused")

	tests := []struct {
		path string
		body string
	}{
		{"/api/chat", `{"messages":[]}`},
		{"/api/chat", `{not json`},
		{"/api/vision", `{"image":"data:image/png;base64,AAAA"}`},
		{"/api/quiz", `{"content":"   "}`},
		{"/api/mindmap", `{}`},
		{"/api/visualize", `{"message":""}`},
		{"/api/stt", `{"audio":"%%%"}`},
		{"/api/tts", `{"text":""}`},
	}

	for _, tc := range tests {
		resp, _ := post(t, srv, tc.path, tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tc.path, tc.body, resp.StatusCode)
		}
	}

	if n := up.callCount(); n != 0 {
		t.Errorf("Expected zero upstream calls, got %d", n)
	}
}

func TestChatFallsBackExactlyOnce(t *testing.T) {
	srv, up := newTestServer(t, "sk-or-test", "Hello from the fallback")
	up.fail("primary/text", http.StatusServiceUnavailable)

	resp, body := post(t, srv, "/api/chat", models.ChatRequest{
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	if calls, seen := up.snapshot(); calls != 2 || seen[1] != "fallback/text" {
		t.Errorf("Expected one retry with fallback/text, got %v", seen)
	}
	var model string
	json.Unmarshal(body["model"], &model)
	if model != "fallback/text" {
		t.Errorf("Expected fallback model in response, got %q", model)
	}
}

func TestChatNoFallbackWhenModelIsFallback(t *testing.T) {
	srv, up := newTestServer(t, "sk-or-test", "unused")
	up.fail("fallback/text", http.StatusTooManyRequests)

	resp, body := post(t, srv, "/api/chat", models.ChatRequest{
		Model:    "fallback/text",
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	})

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected upstream status 429, got %d", resp.StatusCode)
	}
	if n := up.callCount(); n != 1 {
		t.Errorf("Expected a single upstream call, got %d", n)
	}
	if errorMessage(body) != "Upstream request failed" {
		t.Errorf("Unexpected error %q", errorMessage(body))
	}
	if !strings.Contains(string(body["details"]), "fallback/text is down") {
		t.Errorf("Expected upstream body as details, got %s", body["details"])
	}
}

func TestVisionUsesVisionFallback(t *testing.T) {
	srv, up := newTestServer(t, "sk-or-test", "A mitochondrion")
	up.fail("primary/vision", http.StatusBadGateway)

	resp, _ := post(t, srv, "/api/vision", models.VisionRequest{
		Image:  "https://example.com/cell.png",
		Prompt: "What organelle is this?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if _, seen := up.snapshot(); len(seen) != 2 || seen[1] != "fallback/vision" {
		t.Errorf("Expected retry with fallback/vision, got %v", seen)
	}
}

func TestQuizEndToEnd(t *testing.T) {
	content := `[
 {"question":"What is the powerhouse of the cell?","options":["Nucleus","Mitochondria","Ribosome","Golgi"],"correctAnswer":1,"explanation":"It produces ATP."},
 {"question":"Which carries genetic code?","options":["DNA","ATP","Lipids","Water"],"correctAnswer":0,"explanation":"DNA stores genes."},
 {"question":"Where is protein made?","options":["Vacuole","Wall","Ribosome","Membrane"],"correctAnswer":2,"explanation":"Ribosomes translate mRNA."}
]`
	srv, _ := newTestServer(t, "sk-or-test", content)

	resp, body := post(t, srv, "/api/quiz", models.GenerateQuizRequest{Content: "Cell biology notes", NumQuestions: 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(body["questions"], &questions); err != nil {
		t.Fatalf("Expected questions array: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if len(q.Options) != 4 {
			t.Errorf("Question %d: expected 4 options, got %d", i, len(q.Options))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			t.Errorf("Question %d: correctAnswer %d out of range", i, q.CorrectAnswer)
		}
	}
}

func TestMindMapExtractsFromProse(t *testing.T) {
	nodes := `[{"id":"1","title":"Cells","type":"root","children":["2"]},{"id":"2","title":"Organelles","type":"concept","children":[]}]`
	srv, _ := newTestServer(t, "sk-or-test", "Here is your mind map:\n"+nodes+"\nEnjoy!")

	resp, body := post(t, srv, "/api/mindmap", models.MindMapRequest{Content: "cells"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if string(body["nodes"]) != nodes {
		t.Errorf("Expected nodes unchanged, got %s", body["nodes"])
	}
}

func TestGarbageCompletionIsParseError(t *testing.T) {
	srv, _ := newTestServer(t, "sk-or-test", "I am unable to produce a quiz.")

	resp, body := post(t, srv, "/api/quiz", models.GenerateQuizRequest{Content: "notes"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
	if errorMessage(body) != "Model response could not be parsed" {
		t.Errorf("Unexpected error %q", errorMessage(body))
	}
	var raw string
	json.Unmarshal(body["raw"], &raw)
	if raw != "I am unable to produce a quiz." {
		t.Errorf("Expected raw completion, got %q", raw)
	}
}

func TestVisualizeClampsToEightSteps(t *testing.T) {
	steps := make([]string, 10)
	for i := range steps {
		steps[i] = fmt.Sprintf(`{"title":"Step title %d","detail":"d"}`, i+1)
	}
	content := `{"Flow_Insight":{"title":"Mitosis","steps":[` + strings.Join(steps, ",") + `]},"Explanation":"Cells divide."}`
	srv, _ := newTestServer(t, "sk-or-test", content)

	resp, body := post(t, srv, "/api/visualize", models.VisualizeRequest{Message: "explain mitosis"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var diagram models.Diagram
	json.Unmarshal(body["diagram"], &diagram)
	if len(diagram.Steps) != 8 {
		t.Errorf("Expected 8 steps, got %d", len(diagram.Steps))
	}
	if _, ok := body["graph"]; ok {
		t.Errorf("Expected graph to be omitted")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()

	var health struct {
		OK               bool                 `json:"ok"`
		HasOpenRouterKey bool                 `json:"hasOpenRouterKey"`
		Referer          string               `json:"referer"`
		Defaults         config.ModelDefaults `json:"defaults"`
		Runtime          string               `json:"runtime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Expected JSON body: %v", err)
	}

	if !health.OK || health.HasOpenRouterKey {
		t.Errorf("Unexpected health %+v", health)
	}
	if health.Defaults.TextFallback != "fallback/text" || health.Referer != "http://localhost:5173" {
		t.Errorf("Unexpected defaults or referer %+v", health)
	}
	if !strings.HasPrefix(health.Runtime, "go") {
		t.Errorf("Expected Go runtime string, got %q", health.Runtime)
	}
}

func TestExtractWorksWithoutKey(t *testing.T) {
	srv, up := newTestServer(t, "", "")

	resp, body := post(t, srv, "/api/extract", models.ExtractRequest{
		File:     base64.StdEncoding.EncodeToString([]byte("Chapter 1\nCells")),
		Filename: "chapter1.txt",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var text, source string
	json.Unmarshal(body["text"], &text)
	json.Unmarshal(body["source"], &source)
	if text != "Chapter 1\nCells" || source != "txt" {
		t.Errorf("Unexpected extract response %s / %s", text, source)
	}
	if n := up.callCount(); n != 0 {
		t.Errorf("Expected no upstream calls, got %d", n)
	}

	resp, _ = post(t, srv, "/api/extract", models.ExtractRequest{File: "aGk=", Filename: "slides.pptx"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported type, got %d", resp.StatusCode)
	}
}

func TestWorkspaceSurvivesArtifactOnlyReplies(t *testing.T) {
	artifact := "```json\n" + `{"nodes":[{"id":"cell","title":"Cell","connections":[]}]}` + "\n```"
	srv, up := newTestServer(t, "sk-or-test", artifact)
	ws := workspace.New(aiservice.New(srv.URL, srv.Client()))

	for turn := 1; turn <= 3; turn++ {
		reply, merged, err := ws.Send(context.Background(), fmt.Sprintf("question %d", turn))
		if err != nil {
			t.Fatalf("Turn %d failed: %v", turn, err)
		}
		if merged != 1 || strings.TrimSpace(reply) == "" {
			t.Errorf("Turn %d: unexpected reply %q merged=%d", turn, reply, merged)
		}
	}

	if n := up.callCount(); n != 3 {
		t.Errorf("Expected 3 upstream calls, got %d", n)
	}
	if _, ok := ws.Canvas().Get("cell"); !ok {
		t.Error("Expected artifact node on the canvas")
	}
}

func TestWorkspaceMindMapAcceptsObjectChildren(t *testing.T) {
	content := `Sure: [{"id":"1","title":"Cells","type":"concept","children":[{"id":"2"}, 5]},` +
		`{"id":"2","title":"Nucleus","type":"concept","children":[]}]`
	srv, _ := newTestServer(t, "sk-or-test", content)
	ws := workspace.New(aiservice.New(srv.URL, srv.Client()))

	nodes, err := ws.MindMap(context.Background(), "cell biology")
	if err != nil {
		t.Fatalf("MindMap failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %+v", nodes)
	}
	if len(nodes[0].Connections) != 1 || nodes[0].Connections[0] != "2" {
		t.Errorf("Expected edge 1 -> 2 only, got %v", nodes[0].Connections)
	}
}
