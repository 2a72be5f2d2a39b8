package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ollamaClient serves both as a local summarizer and as a local generator.
type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	prompt := buildSummaryPrompt(strings.TrimSpace(text), minLength, maxLength)
	// Roughly 1.5 tokens per word leaves room for the upper bound.
	return c.generate(ctx, "", prompt, maxLength*3/2+16)
}

func (c *ollamaClient) Generate(ctx context.Context, instruction string, content []string) (string, error) {
	return c.generate(ctx, instruction, buildGeneratePrompt(content), 0)
}

func (c *ollamaClient) generate(ctx context.Context, system, prompt string, numPredict int) (string, error) {
	options := map[string]any{"temperature": 0}
	if numPredict > 0 {
		options["num_predict"] = numPredict
	}
	payload := map[string]any{
		"model":   c.model,
		"prompt":  prompt,
		"stream":  false,
		"options": options,
	}
	if system != "" {
		payload["system"] = system
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ollama API error: %s (%s)", resp.Status, string(body))
	}

	var parsed struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return strings.TrimSpace(parsed.Response), nil
}
