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

func TestOpenAIOracle_NarrateDialog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req OpenAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		var resp OpenAIChatResponse
		resp.Choices = []OpenAIChatChoice{{}}
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = `{"speech": "Aye, what'll it be?", "tone": "gruff", "reveals_quest_info": false}`
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newPromptOracle(&openAIClient{
		apiKey:     "test-key",
		modelName:  "test-model",
		baseURL:    server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil)

	resp, err := svc.NarrateDialog(context.Background(), oracle.CharacterInfo{Name: "barkeep", Role: "merchant"}, "a stranger asks about the shipment")
	require.NoError(t, err)
	assert.Equal(t, "Aye, what'll it be?", resp.Speech)
	assert.Equal(t, "gruff", resp.Tone)
}

func TestOpenAIOracle_EmptyChoices(t *testing.T) {
	old := baseRetryDelay
	baseRetryDelay = time.Millisecond
	defer func() { baseRetryDelay = old }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OpenAIChatResponse{})
	}))
	defer server.Close()

	svc := newPromptOracle(&openAIClient{
		apiKey:     "test-key",
		modelName:  "test-model",
		baseURL:    server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil)

	_, err := svc.NarrateDialog(context.Background(), oracle.CharacterInfo{Name: "barkeep"}, "hello")
	assert.Error(t, err)
}
