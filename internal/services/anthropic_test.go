package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
)

func anthropicTextResponse(text string) AnthropicChatResponse {
	return AnthropicChatResponse{
		ID:      "msg_test",
		Type:    "message",
		Role:    "assistant",
		Content: []AnthropicContentBlock{{Type: "text", Text: text}},
	}
}

func newTestAnthropicOracle(url string) *promptOracle {
	return newPromptOracle(&anthropicClient{
		apiKey:     "test-key",
		modelName:  "test-model",
		baseURL:    url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil)
}

func TestAnthropicOracle_NarrateScene(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req AnthropicChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.System)
		require.Len(t, req.Messages, 1)

		_ = json.NewEncoder(w).Encode(anthropicTextResponse(
			`{"description": "The tavern hums with quiet talk.", "atmosphere": "warm"}`))
	}))
	defer server.Close()

	svc := newTestAnthropicOracle(server.URL)
	desc, err := svc.NarrateScene(context.Background(), oracle.SceneRequest{
		Location: "tavern", TimeOfDay: "evening",
	})
	require.NoError(t, err)
	assert.Equal(t, "The tavern hums with quiet talk.", desc.Description)
	assert.Equal(t, "warm", desc.Atmosphere)
}

func TestAnthropicOracle_FencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anthropicTextResponse(
			"```json\n{\"success\": true, \"message\": \"You step outside.\"}\n```"))
	}))
	defer server.Close()

	svc := newTestAnthropicOracle(server.URL)
	res, err := svc.ResolvePlayerAction(context.Background(), oracle.ResolutionContext{
		ActionType: "move", ActionContent: "go outside",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "You step outside.", res.Message)
}

func TestAnthropicOracle_RetriesRateLimit(t *testing.T) {
	old := baseRetryDelay
	baseRetryDelay = time.Millisecond
	defer func() { baseRetryDelay = old }()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(anthropicTextResponse(
			`{"action_type": "look", "description": "Look around", "reasoning": "caution"}`))
	}))
	defer server.Close()

	svc := newTestAnthropicOracle(server.URL)
	a, err := svc.DecideCharacterAction(context.Background(), oracle.CharacterInfo{Name: "Thorin"}, oracle.ActionContext{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "look", a.ActionType)
}

func TestAnthropicOracle_GivesUpAfterMaxAttempts(t *testing.T) {
	old := baseRetryDelay
	baseRetryDelay = time.Millisecond
	defer func() { baseRetryDelay = old }()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestAnthropicOracle(server.URL)
	_, err := svc.NarrateScene(context.Background(), oracle.SceneRequest{Location: "tavern"})
	assert.Error(t, err)
	assert.Equal(t, maxAttempts, calls)
}

func TestAnthropicOracle_APIError(t *testing.T) {
	old := baseRetryDelay
	baseRetryDelay = time.Millisecond
	defer func() { baseRetryDelay = old }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicTextResponse("")
		resp.Content = nil
		resp.Error = &struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{Type: "invalid_request_error", Message: "bad model"}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestAnthropicOracle(server.URL)
	_, err := svc.NarrateScene(context.Background(), oracle.SceneRequest{Location: "tavern"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestAnthropicOracle_RejectsEmptyNarration(t *testing.T) {
	old := baseRetryDelay
	baseRetryDelay = time.Millisecond
	defer func() { baseRetryDelay = old }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anthropicTextResponse(`{"description": ""}`))
	}))
	defer server.Close()

	svc := newTestAnthropicOracle(server.URL)
	_, err := svc.NarrateScene(context.Background(), oracle.SceneRequest{Location: "tavern"})
	assert.Error(t, err)
}
