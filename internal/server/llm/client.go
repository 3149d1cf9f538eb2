// Package llm talks to an OpenAI-compatible inference provider (Groq by
// default): chat completions with tool calling, text-to-speech, and a
// model-list probe used to validate API keys. The API key is passed per call
// because it belongs to the visitor's session, not to the server.
package llm

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

	"github.com/dmitrijs2005/podmate/internal/common"
)

// MinAPIKeyLength is the shortest key worth probing.
const MinAPIKeyLength = 10

const maxResponseSize = 64 << 20

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type ChatResponse struct {
	Message      Message
	FinishReason string
}

type SpeechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Chat runs one chat completion and returns the first choice.
func (c *Client) Chat(ctx context.Context, apiKey string, req ChatRequest) (*ChatResponse, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, _, err := c.do(ctx, apiKey, http.MethodPost, "/chat/completions", raw)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Choices []struct {
			Message      Message `json:"message"`
			FinishReason string  `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Message: "malformed response: " + err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Message: "malformed response: no choices"}
	}

	return &ChatResponse{
		Message:      parsed.Choices[0].Message,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}

// Complete sends a single user prompt and returns the reply text as-is.
func (c *Client) Complete(ctx context.Context, apiKey, model, prompt string) (string, error) {
	resp, err := c.Chat(ctx, apiKey, ChatRequest{
		Model:    model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Speech synthesizes req.Input and returns the audio bytes with their
// content type.
func (c *Client) Speech(ctx context.Context, apiKey string, req SpeechRequest) ([]byte, string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}

	body, header, err := c.do(ctx, apiKey, http.MethodPost, "/audio/speech", raw)
	if err != nil {
		return nil, "", err
	}

	contentType := header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/json") {
		contentType = AudioContentType(req.ResponseFormat)
	}
	return body, contentType, nil
}

// Probe checks apiKey with a cheap authenticated request. A rejected key
// yields common.ErrInvalidAPIKey; other failures are ProviderErrors.
func (c *Client) Probe(ctx context.Context, apiKey string) error {
	if len(strings.TrimSpace(apiKey)) < MinAPIKeyLength {
		return fmt.Errorf("%w: API key too short", common.ErrInvalidAPIKey)
	}

	_, _, err := c.do(ctx, apiKey, http.MethodGet, "/models", nil)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) &&
			(pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: %s", common.ErrInvalidAPIKey, pe.Message)
		}
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, apiKey, method, path string, payload []byte) ([]byte, http.Header, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, &ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, &ProviderError{StatusCode: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, errorFromResponse(resp.StatusCode, body)
	}

	return body, resp.Header, nil
}

// AudioContentType maps a TTS response_format to a MIME type.
func AudioContentType(format string) string {
	switch strings.ToLower(format) {
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	case "ogg", "opus":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	default:
		return "audio/wav"
	}
}
