package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeminiComplete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, "models/gemini-2.0-flash:generateContent")
		require.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"SWE\"}"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := g.Complete(context.Background(), "extract this")
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"SWE"}`, out)
}

func TestGeminiSurfacesRateLimitBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Resource exhausted. Please try again in 2.5s."}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), "extract this")
	require.Error(t, err)

	delay, ok := ParseRetryDelay(err)
	require.True(t, ok, "rate limit hint should survive into the error text")
	require.Equal(t, 2500, int(delay.Milliseconds()))
}

func TestOpenAIComplete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"SWE\"}"}}]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIConfig{APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), "extract this")
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"SWE"}`, out)
}

func TestNewBackendRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(GeminiConfig{})
	require.Error(t, err)
	_, err = NewOpenAI(OpenAIConfig{})
	require.Error(t, err)
}
