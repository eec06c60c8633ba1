package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/tabletop-agents/pkg/chat"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048
)

// anthropicClient talks to the Anthropic Messages API.
type anthropicClient struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

type AnthropicChatRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	Messages    []chat.Message `json:"messages"`
	System      string         `json:"system,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
}

type AnthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []AnthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicOracle creates an oracle backed by Anthropic Claude.
func NewAnthropicOracle(apiKey, modelName string, logger *slog.Logger) oracle.Service {
	return newPromptOracle(&anthropicClient{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, logger)
}

// splitMessages combines all system messages into a single system prompt
// and returns the remaining conversation messages
func splitMessages(messages []chat.Message) (string, []chat.Message) {
	var systemParts []string
	var conversation []chat.Message

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			conversation = append(conversation, msg)
		}
	}

	return strings.Join(systemParts, "\n\n"), conversation
}

func (a *anthropicClient) complete(ctx context.Context, messages []chat.Message) (string, error) {
	systemPrompt, conversation := splitMessages(messages)

	temperature := DefaultAnthropicTemperature
	anthropicReq := AnthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages:    conversation,
		System:      systemPrompt,
		Stream:      false,
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiStatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var anthropicResp AnthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if anthropicResp.Error != nil {
		return "", fmt.Errorf("API error: %s", anthropicResp.Error.Message)
	}

	var responseText string
	for _, content := range anthropicResp.Content {
		if content.Type == "text" {
			responseText += content.Text
		}
	}
	if responseText == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return responseText, nil
}
