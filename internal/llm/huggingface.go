package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// huggingFaceClient speaks the transformers summarization pipeline protocol used by
// the Hugging Face inference API and self-hosted inference servers.
type huggingFaceClient struct {
	endpoint string
	token    string
	client   *http.Client
}

func (c *huggingFaceClient) Name() string {
	return fmt.Sprintf("Hugging Face (%s)", path.Base(strings.TrimRight(c.endpoint, "/")))
}

func (c *huggingFaceClient) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	payload := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"min_length": minLength,
			"max_length": maxLength,
			"do_sample":  false,
		},
		"options": map[string]any{"wait_for_model": true},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

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
		return "", fmt.Errorf("summarizer API error: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode summarizer response: %w", err)
	}
	if len(parsed) == 0 || strings.TrimSpace(parsed[0].SummaryText) == "" {
		return "", fmt.Errorf("summarizer returned an empty response")
	}
	return strings.TrimSpace(parsed[0].SummaryText), nil
}
