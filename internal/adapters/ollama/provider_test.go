package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
)

func TestAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: srv.URL, ModelName: "llama3.2"}, zap.NewNop())
	assert.True(t, p.Available())
}

func TestAvailableFalseWhenUnreachable(t *testing.T) {
	p := NewProvider(config.OllamaConfig{BaseURL: "http://127.0.0.1:1", ModelName: "llama3.2"}, zap.NewNop())
	assert.False(t, p.Available())
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req["model"])
		assert.Equal(t, false, req["stream"])

		json.NewEncoder(w).Encode(map[string]string{"response": "[]"})
	}))
	defer srv.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: srv.URL, ModelName: "llama3.2"}, zap.NewNop())
	got, err := p.Complete(context.Background(), "classify these", 512)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: srv.URL, ModelName: "missing"}, zap.NewNop())
	_, err := p.Complete(context.Background(), "prompt", 512)
	assert.Error(t, err)
}
