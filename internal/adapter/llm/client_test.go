package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/crispai/sitechat/internal/config"
)

func TestClientCreateChatCompletion(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`)
	}))
	defer server.Close()

	maxTokens := 100
	temperature := 0.7
	client := NewClient(server.URL+"/", "sk-test", time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:       "gpt-4o",
		Messages:    []ChatMessage{{Role: "system", Content: "ctx"}, {Role: "user", Content: "hello"}},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	content, err := resp.Content()
	if err != nil || content != "hi" {
		t.Fatalf("unexpected content %q (err %v)", content, err)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 100 {
		t.Fatalf("max_tokens not sent: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.7 {
		t.Fatalf("temperature not sent: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestClientCreateChatCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4o",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestClientCreateChatCompletionMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	if _, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4o"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 20*time.Millisecond)
	if _, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4o"}); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestResponseContentNoChoices(t *testing.T) {
	resp := &ChatCompletionResponse{}
	if _, err := resp.Content(); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}

func TestMockClientEchoesLastUserMessage(t *testing.T) {
	resp, err := NewMockClient().CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model: "gpt-4o",
		Messages: []ChatMessage{
			{Role: "system", Content: "ctx"},
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "reply"},
			{Role: "user", Content: "second"},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	content, _ := resp.Content()
	if content != `[MOCK] Received your message: "second". This is a mock response.` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestMockClientTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 150)
	resp, err := NewMockClient().CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: long}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	content, _ := resp.Content()
	if !utf8.ValidString(content) {
		t.Fatalf("reply is not valid UTF-8: %q", content)
	}
	if !strings.Contains(content, strings.Repeat("é", 100)+"...") {
		t.Fatalf("expected 100 runes kept, got %q", content)
	}

	if got := truncate("héllo", 10); got != "héllo" {
		t.Fatalf("short string changed: %q", got)
	}
}

func TestNewLLMClientMode(t *testing.T) {
	if _, ok := NewLLMClient(&config.Config{Mode: config.ModeMock}).(*MockClient); !ok {
		t.Fatalf("expected mock client in MOCK mode")
	}
	if _, ok := NewLLMClient(&config.Config{LLMBaseURL: "http://localhost", LLMTimeout: time.Second}).(*Client); !ok {
		t.Fatalf("expected real client")
	}
}
