package llmclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resty.dev/v3"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
)

func testSettings(model string) settings.GenerationSettings {
	gen := *settings.DefaultSettings(1)
	gen.Model = model
	return gen
}

func userMessage(content string) conversation.Message {
	return conversation.Message{Role: conversation.RoleUser, Content: content}
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   provider.ErrorKind
	}{
		{http.StatusTooManyRequests, provider.ErrorKindRateLimited},
		{http.StatusInternalServerError, provider.ErrorKindUnavailable},
		{http.StatusBadGateway, provider.ErrorKindUnavailable},
		{http.StatusBadRequest, provider.ErrorKindRejected},
		{http.StatusUnauthorized, provider.ErrorKindRejected},
	}
	for _, tt := range tests {
		if got := kindFromStatus(tt.status); got != tt.want {
			t.Fatalf("kindFromStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestOpenAIErrorMapping(t *testing.T) {
	statuses := map[int]provider.ErrorKind{
		http.StatusTooManyRequests:     provider.ErrorKindRateLimited,
		http.StatusBadRequest:          provider.ErrorKindRejected,
		http.StatusServiceUnavailable:  provider.ErrorKindUnavailable,
		http.StatusInternalServerError: provider.ErrorKindUnavailable,
	}
	for status, wantKind := range statuses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"secret vendor detail"}}`))
		}))

		client := NewOpenAIClient(resty.New(), server.URL, "test-key")
		_, err := client.Generate(context.Background(), []conversation.Message{userMessage("hi")}, testSettings("gpt-4o-2024-08-06"))
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		kind, ok := provider.KindOf(err)
		if !ok || kind != wantKind {
			t.Fatalf("status %d: expected kind %q, got %v", status, wantKind, err)
		}
		if strings.Contains(err.Error(), "secret vendor detail") {
			t.Fatalf("raw vendor body leaked into error: %v", err)
		}
	}
}

func TestOpenAIThinkingInjectsSystemPrompt(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float32 `json:"temperature"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"42"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer server.Close()

	gen := testSettings("o4-mini-2025-04-16")
	gen.ThinkingEnabled = true

	client := NewOpenAIClient(resty.New(), server.URL, "test-key")
	result, err := client.Generate(context.Background(), []conversation.Message{userMessage("meaning of life?")}, gen)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "42" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.Usage.TotalTokens != 4 {
		t.Fatalf("unexpected usage %+v", result.Usage)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system prompt + user message, got %d messages", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || !strings.Contains(captured.Messages[0].Content, "step by step") {
		t.Fatalf("expected injected thinking system prompt, got %+v", captured.Messages[0])
	}
	if !result.UsedThinking {
		t.Fatal("expected UsedThinking set")
	}
}

func TestAnthropicThinkingForcesTemperature(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing anthropic-version header")
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing x-api-key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content":[
				{"type":"thinking","thinking":"pondering"},
				{"type":"text","text":"an answer"}
			],
			"usage":{"input_tokens":7,"output_tokens":9}
		}`))
	}))
	defer server.Close()

	gen := testSettings("claude-sonnet-4-20250514")
	gen.ThinkingEnabled = true
	gen.Temperature = 0.7
	gen.ThinkingBudget = 0

	client := NewAnthropicClient(resty.New(), server.URL, "test-key")
	result, err := client.Generate(context.Background(), []conversation.Message{userMessage("hi")}, gen)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if captured.Temperature != 1.0 {
		t.Fatalf("expected temperature forced to 1.0, got %v", captured.Temperature)
	}
	if captured.Thinking == nil || captured.Thinking.BudgetTokens != defaultThinkingBudget {
		t.Fatalf("expected thinking with default budget, got %+v", captured.Thinking)
	}
	if len(result.Substitutions) != 1 || result.Substitutions[0].Setting != "temperature" {
		t.Fatalf("expected a recorded temperature substitution, got %+v", result.Substitutions)
	}
	if result.Thinking != "pondering" || result.Text != "an answer" {
		t.Fatalf("thinking and text must stay separate, got thinking=%q text=%q", result.Thinking, result.Text)
	}
	if !result.UsedThinking {
		t.Fatal("expected UsedThinking set")
	}
	if result.Usage.TotalTokens != 16 {
		t.Fatalf("unexpected usage %+v", result.Usage)
	}
}

func TestAnthropicNoSubstitutionWithoutThinking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(resty.New(), server.URL, "test-key")
	result, err := client.Generate(context.Background(), []conversation.Message{userMessage("hi")}, testSettings("claude-sonnet-4-20250514"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Substitutions) != 0 {
		t.Fatalf("expected no substitutions, got %+v", result.Substitutions)
	}
}

func TestAnthropicAttachmentOnlyMessageOmitsEmptyText(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"a cat"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(resty.New(), server.URL, "test-key")
	msg := conversation.Message{
		Role: conversation.RoleUser,
		Attachments: []conversation.Attachment{
			{MimeType: "image/png", StorageRef: "https://files.example/photo.png"},
		},
	}
	_, err := client.Generate(context.Background(), []conversation.Message{msg}, testSettings("claude-sonnet-4-20250514"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(captured.Messages))
	}
	for _, block := range captured.Messages[0].Content {
		if block.Type == "text" {
			t.Fatalf("attachment-only message carried a text block: %+v", block)
		}
	}
}

func TestGeminiRoleMappingAndSearch(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing x-goog-api-key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{
				"content":{"parts":[{"text":"sunny"}]},
				"groundingMetadata":{"webSearchQueries":["weather"]}
			}],
			"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2,"totalTokenCount":7}
		}`))
	}))
	defer server.Close()

	gen := testSettings("gemini-2.5-flash")
	gen.SearchEnabled = true

	history := []conversation.Message{
		userMessage("hello"),
		{Role: conversation.RoleAssistant, Content: "hi"},
		userMessage("weather today?"),
	}

	client := NewGeminiClient(resty.New(), server.URL, "test-key")
	result, err := client.Generate(context.Background(), history, gen)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(captured.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Fatalf("assistant role must map to model, got %q", captured.Contents[1].Role)
	}
	if len(captured.Tools) != 1 {
		t.Fatalf("expected google search tool, got %+v", captured.Tools)
	}
	if !result.UsedSearch {
		t.Fatal("expected UsedSearch set when grounding metadata present")
	}
	if result.Text != "sunny" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestGeminiThinkingAndInlineMedia(t *testing.T) {
	var captured geminiRequest
	png := []byte{0x89, 0x50, 0x4E, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": "planning", "thought": true},
						{"text": "here it is"},
						{"inlineData": map[string]any{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(png),
						}},
					},
				},
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 1, "candidatesTokenCount": 1, "totalTokenCount": 2},
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	gen := testSettings("gemini-2.5-flash")
	gen.ThinkingEnabled = true
	gen.ThinkingBudget = 1024

	client := NewGeminiClient(resty.New(), server.URL, "test-key")
	result, err := client.Generate(context.Background(), []conversation.Message{userMessage("draw me a map")}, gen)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if captured.GenerationConfig.ThinkingConfig == nil ||
		captured.GenerationConfig.ThinkingConfig.ThinkingBudget != 1024 ||
		!captured.GenerationConfig.ThinkingConfig.IncludeThoughts {
		t.Fatalf("unexpected thinking config %+v", captured.GenerationConfig.ThinkingConfig)
	}
	if result.Thinking != "planning" || result.Text != "here it is" {
		t.Fatalf("thought parts must route to Thinking, got thinking=%q text=%q", result.Thinking, result.Text)
	}
	if len(result.Media) != 1 || result.Media[0].MimeType != "image/png" {
		t.Fatalf("expected one png media blob, got %+v", result.Media)
	}
	if string(result.Media[0].Data) != string(png) {
		t.Fatal("media data not decoded correctly")
	}
}

func TestFitPayloadKeepsNewest(t *testing.T) {
	big := strings.Repeat("z", maxRequestBytes/2)
	messages := []conversation.Message{
		{Role: conversation.RoleUser, Content: big},
		{Role: conversation.RoleAssistant, Content: big},
		{Role: conversation.RoleUser, Content: "latest"},
	}

	fitted := fitPayload(messages)
	if len(fitted) != 2 {
		t.Fatalf("expected oldest message dropped, got %d messages", len(fitted))
	}
	if fitted[len(fitted)-1].Content != "latest" {
		t.Fatal("newest message must survive")
	}
}

func TestParseDataURI(t *testing.T) {
	mimeType, data, ok := parseDataURI("data:image/jpeg;base64,AAAA")
	if !ok || mimeType != "image/jpeg" || data != "AAAA" {
		t.Fatalf("unexpected parse result: %q %q %v", mimeType, data, ok)
	}
	if _, _, ok := parseDataURI("https://example.com/cat.jpg"); ok {
		t.Fatal("plain URLs must not parse as data URIs")
	}
	if _, _, ok := parseDataURI("data:image/jpeg,raw"); ok {
		t.Fatal("non-base64 data URIs are not supported")
	}
}
