package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type ollamaPayload struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

func TestOllamaClientSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var payload ollamaPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Model != "qwen3-vl:8b" {
			t.Fatalf("expected model qwen3-vl:8b, got %s", payload.Model)
		}
		if !strings.Contains(payload.Prompt, "between 90 and 110 words") {
			t.Fatalf("prompt missing length window: %s", payload.Prompt)
		}
		if payload.Stream {
			t.Fatal("expected streaming to be disabled")
		}
		if payload.Options["temperature"] != float64(0) {
			t.Fatalf("expected deterministic decoding, got %v", payload.Options)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":" A short summary. ","done":true}`))
	}))
	defer server.Close()

	client := &ollamaClient{host: server.URL, model: "qwen3-vl:8b", client: server.Client()}

	result, err := client.Summarize(context.Background(), "This is the abstract.", 90, 110)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if result != "A short summary." {
		t.Fatalf("unexpected summarize result: %q", result)
	}
}

func TestOllamaClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload ollamaPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.System != "Answer from the paper." {
			t.Fatalf("unexpected system prompt: %q", payload.System)
		}
		if !strings.Contains(payload.Prompt, "Question: What is the method?") {
			t.Fatalf("prompt missing question: %s", payload.Prompt)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"The paper uses contrastive learning.","done":true}`))
	}))
	defer server.Close()

	client := &ollamaClient{host: server.URL, model: "qwen3-vl:8b", client: server.Client()}

	answer, err := client.Generate(context.Background(), "Answer from the paper.", []string{"The method leverages contrastive learning.", "What is the method?"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "The paper uses contrastive learning." {
		t.Fatalf("unexpected answer: %s", answer)
	}
}

func TestOllamaClientReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := &ollamaClient{host: server.URL, model: "missing", client: server.Client()}
	_, err := client.Summarize(context.Background(), "text", 10, 20)
	if err == nil || !strings.Contains(err.Error(), "ollama API error") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestOllamaClientGenerateSendsContentVerbatim(t *testing.T) {
	paper := strings.Repeat("Long papers reach the model untouched. ", 8000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload ollamaPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Prompt != "Paper:\n"+paper {
			t.Fatalf("content was altered: got %d chars, want %d", len(payload.Prompt), len("Paper:\n"+paper))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"summary","done":true}`))
	}))
	defer server.Close()

	client := &ollamaClient{host: server.URL, model: "qwen3-vl:8b", client: server.Client()}
	if _, err := client.Generate(context.Background(), "Summarize.", []string{paper}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
}
