package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeit/factora/internal/domain"
)

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func TestNewClient_NoEndpointDisabled(t *testing.T) {
	assert.Nil(t, NewClient(Config{}, zerolog.Nop()))
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		json.NewEncoder(w).Encode(chatReply("buy low sell high"))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "test-key", Model: "test-model"}, zerolog.Nop())

	reply, err := client.Chat(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "buy low sell high", reply)
}

func TestChat_RetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(chatReply("second time lucky"))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL}, zerolog.Nop())

	reply, err := client.Chat(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", reply)
	assert.Equal(t, 2, calls)
}

func TestChat_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL}, zerolog.Nop())

	_, err := client.Chat(context.Background(), "system", "user")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 1, calls)
}

func TestChat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL}, zerolog.Nop())

	_, err := client.Chat(context.Background(), "system", "user")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
