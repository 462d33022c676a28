package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Chat(t *testing.T) {
	var captured ChatRequest
	var capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		capturedAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		resp := ChatResponse{
			Choices: []ChatChoice{
				{Message: ChatChoiceMessage{Role: "assistant", Content: "generated answer"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "gpt-3.5-turbo")

	answer, err := client.Chat(context.Background(), "system instruction", "user prompt", ChatParams{
		Model:       "gpt-4",
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}

	if answer != "generated answer" {
		t.Errorf("answer = %q", answer)
	}
	if capturedAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", capturedAuth)
	}
	if captured.Model != "gpt-4" {
		t.Errorf("model = %q, want gpt-4 (per-request override)", captured.Model)
	}
	if captured.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", captured.Temperature)
	}
	if captured.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d, want 1000", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != "system instruction" {
		t.Errorf("first message = %+v, want system message", captured.Messages[0])
	}
	if captured.Messages[1].Role != "user" || captured.Messages[1].Content != "user prompt" {
		t.Errorf("second message = %+v, want user message", captured.Messages[1])
	}
}

func TestClient_Chat_DefaultModel(t *testing.T) {
	var captured ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(ChatResponse{
			Choices: []ChatChoice{{Message: ChatChoiceMessage{Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "gpt-3.5-turbo")

	if _, err := client.Chat(context.Background(), "s", "u", ChatParams{}); err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if captured.Model != "gpt-3.5-turbo" {
		t.Errorf("model = %q, want client default", captured.Model)
	}
}

func TestClient_Chat_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "gpt-3.5-turbo")

	_, err := client.Chat(context.Background(), "s", "u", ChatParams{})
	if err == nil {
		t.Fatal("Chat() should return error on bad status")
	}
	if !strings.Contains(err.Error(), "bad status 429") {
		t.Errorf("error = %v, want bad status 429", err)
	}
}

func TestClient_Chat_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ChatResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "gpt-3.5-turbo")

	_, err := client.Chat(context.Background(), "s", "u", ChatParams{})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %v, want no choices error", err)
	}
}
