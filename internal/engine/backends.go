package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sentinelstack/sentinel-observer/internal/utils"
)

// ErrNotConfigured signals a backend whose credentials are absent. The
// engine skips such entries and moves down the chain.
var ErrNotConfigured = errors.New("backend not configured")

// Backend is one reasoning endpoint in the fallback chain. Analyze sends
// the evidence and returns the model's raw response text.
type Backend interface {
	Name() string
	Analyze(ctx context.Context, systemPrompt, input string) (string, error)
}

// RemoteBackend calls a hosted chat-completion API and requests a
// JSON-object response.
type RemoteBackend struct {
	name   string
	client *openai.Client
}

// NewRemoteBackend constructs a remote backend. An empty apiKey yields a
// backend that reports ErrNotConfigured instead of calling out.
func NewRemoteBackend(name, apiKey, baseURL string) *RemoteBackend {
	b := &RemoteBackend{name: name}
	if apiKey == "" {
		return b
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	b.client = openai.NewClientWithConfig(cfg)
	return b
}

func (b *RemoteBackend) Name() string { return b.name }

// Analyze issues a single chat completion. No retry within the same
// model: any failure advances the chain.
func (b *RemoteBackend) Analyze(ctx context.Context, systemPrompt, input string) (string, error) {
	if b.client == nil {
		return "", ErrNotConfigured
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", utils.NewAppError("backend.remote", b.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", utils.NewAppError("backend.remote", b.name, errors.New("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

// LocalBackend calls an on-host inference endpoint speaking the
// {model, system_prompt, input} protocol.
type LocalBackend struct {
	name       string
	endpoint   string
	httpClient *http.Client
}

// NewLocalBackend constructs a local backend for the given endpoint.
func NewLocalBackend(name, endpoint string, timeout time.Duration) *LocalBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LocalBackend{
		name:       name,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (b *LocalBackend) Name() string { return b.name }

// Analyze posts the evidence and extracts the response text. Local
// servers disagree on envelope shape, so several known layouts are
// accepted before falling back to the stringified body.
func (b *LocalBackend) Analyze(ctx context.Context, systemPrompt, input string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"model":         b.name,
		"system_prompt": systemPrompt,
		"input":         input,
	})
	if err != nil {
		return "", utils.NewAppError("backend.local", b.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", utils.NewAppError("backend.local", b.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", utils.NewAppError("backend.local", b.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", utils.NewAppError("backend.local", b.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", utils.NewAppError("backend.local", b.name, fmt.Errorf("endpoint returned %s", resp.Status))
	}

	return extractResponseText(body), nil
}

// extractResponseText probes the known local response envelopes in
// preference order: choices[0].message.content, then a top-level
// "response" field, then "message", else the whole body as text.
func extractResponseText(body []byte) string {
	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Response string `json:"response"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return string(body)
	}

	switch {
	case len(envelope.Choices) > 0 && envelope.Choices[0].Message.Content != "":
		return envelope.Choices[0].Message.Content
	case envelope.Response != "":
		return envelope.Response
	case envelope.Message != "":
		return envelope.Message
	default:
		return string(body)
	}
}
