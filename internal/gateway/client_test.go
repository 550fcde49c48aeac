package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "done, archived 3 emails"}},
			},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", "test-model")
	text, err := c.SendPrompt(context.Background(), "triage my inbox")
	require.NoError(t, err)

	assert.Equal(t, "done, archived 3 emails", text)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "test-model", gotPayload["model"])
	assert.Equal(t, false, gotPayload["stream"])
}

func TestChatNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", "m")
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream overloaded")
}

func TestAssistantTextEmpty(t *testing.T) {
	assert.Equal(t, "", ChatResponse{}.AssistantText())
}

func TestHealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", "")
	assert.True(t, c.Healthy(context.Background()))

	down := NewClient("http://127.0.0.1:1", "", "")
	assert.False(t, down.Healthy(context.Background()))
}
