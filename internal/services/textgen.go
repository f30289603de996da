package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatCompletionClient talks to an OpenAI-compatible chat completions endpoint.
type ChatCompletionClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewChatCompletionClient(url, apiKey, model string, timeout time.Duration) *ChatCompletionClient {
	return &ChatCompletionClient{
		url:        strings.TrimRight(url, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *ChatCompletionClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.url == "" {
		return "", errors.New("text generation is not configured")
	}

	reqBody, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a nutrition assistant that writes structured meal plans."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build textgen request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call textgen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("textgen failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode textgen response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("textgen returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
