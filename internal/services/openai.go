package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/tabletop-agents/pkg/chat"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"

	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 2048
)

// openAIClient talks to the OpenAI chat completions API.
type openAIClient struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

type OpenAIChatRequest struct {
	Model       string         `json:"model"`
	Messages    []chat.Message `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
}

type OpenAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type OpenAIChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []OpenAIChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIOracle creates an oracle backed by OpenAI chat completions.
func NewOpenAIOracle(apiKey, modelName string, logger *slog.Logger) oracle.Service {
	return newPromptOracle(&openAIClient{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}, logger)
}

func (c *openAIClient) complete(ctx context.Context, messages []chat.Message) (string, error) {
	openAIReq := OpenAIChatRequest{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: DefaultOpenAITemperature,
		MaxTokens:   DefaultOpenAIMaxTokens,
	}

	reqBody, err := json.Marshal(openAIReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
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

	var openAIResp OpenAIChatResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return openAIResp.Choices[0].Message.Content, nil
}
