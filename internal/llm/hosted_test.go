package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/csheth/paperdistill/internal/config"
)

func TestOpenAIClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload.Model != "gpt-4o-mini" || len(payload.Messages) != 2 {
			t.Fatalf("unexpected payload %+v", payload)
		}
		if payload.Messages[0].Role != "system" || payload.Messages[0].Content != "Condense this paper." {
			t.Fatalf("unexpected system message %+v", payload.Messages[0])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Two paragraphs."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := newOpenAIClient(config.GeneratorConfig{
		APIKey:    "sk-test",
		Endpoint:  server.URL + "/v1/",
		Model:     "gpt-4o-mini",
		MaxTokens: 512,
	}, server.Client())

	got, err := client.Generate(context.Background(), "Condense this paper.", []string{"full text"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Two paragraphs." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestAnthropicClientGenerate(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(payload.System) != 1 || payload.System[0].Text != "Only answer from the paper." {
			t.Fatalf("unexpected system %+v", payload.System)
		}
		if len(payload.Messages) != 1 || len(payload.Messages[0].Content) != 2 {
			t.Fatalf("expected one user message with two parts, got %+v", payload.Messages)
		}
		if payload.Messages[0].Content[1].Text != "What dataset?" {
			t.Fatalf("unexpected question part %+v", payload.Messages[0].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"ImageNet."}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`))
	}))
	defer server.Close()

	client := newAnthropicClient(config.GeneratorConfig{
		APIKey:    "key",
		Endpoint:  server.URL,
		Model:     "claude-test",
		MaxTokens: 256,
	}, server.Client())

	got, err := client.Generate(context.Background(), "Only answer from the paper.", []string{"paper text", "What dataset?"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "ImageNet." {
		t.Fatalf("unexpected output %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestAnthropicClientDoesNotRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	client := newAnthropicClient(config.GeneratorConfig{APIKey: "key", Endpoint: server.URL, Model: "m", MaxTokens: 10}, server.Client())
	if _, err := client.Generate(context.Background(), "i", []string{"text"}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
