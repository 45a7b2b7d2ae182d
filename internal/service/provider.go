package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/voxscholar/voxscholar/internal/config"
)

// Provider errors. ErrProviderNotConfigured is structural (no API key set)
// and distinct from a transient ErrProviderFailed.
var (
	ErrProviderNotConfigured = errors.New("no provider API key configured")
	ErrProviderFailed        = errors.New("provider request failed")
)

// ChatMessage is one turn in a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// ProviderClient talks to an OpenAI-compatible API for chat completions
// and speech synthesis.
type ProviderClient struct {
	cfg  *config.Config
	http *http.Client
}

func NewProviderClient(cfg *config.Config) *ProviderClient {
	return &ProviderClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.ProviderTimeout},
	}
}

// Configured reports whether an API key is present.
func (c *ProviderClient) Configured() bool {
	return c.cfg.ProviderAPIKey != ""
}

// ChatCompletion sends the messages to the chat endpoint and returns the
// assistant reply text.
func (c *ProviderClient) ChatCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	if !c.Configured() {
		return "", ErrProviderNotConfigured
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:    c.cfg.ChatModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	data, err := c.post(ctx, "/chat/completions", "application/json", body)
	if err != nil {
		return "", err
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProviderFailed, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProviderFailed, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrProviderFailed)
	}
	return parsed.Choices[0].Message.Content, nil
}

// Speech synthesizes the input text and returns the audio bytes.
func (c *ProviderClient) Speech(ctx context.Context, input, voice string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrProviderNotConfigured
	}
	if voice == "" {
		voice = c.cfg.TTSVoice
	}

	body, err := json.Marshal(speechRequest{
		Model: c.cfg.TTSModel,
		Input: input,
		Voice: voice,
	})
	if err != nil {
		return nil, fmt.Errorf("encode speech request: %w", err)
	}

	return c.post(ctx, "/audio/speech", "application/json", body)
}

func (c *ProviderClient) post(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ProviderBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.cfg.ProviderAPIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
