package openai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefinder/internal/llm/openai"
)

func newClient(t *testing.T, url string) *openai.Client {
	t.Helper()
	t.Setenv("TEST_CHAT_KEY", "secret")
	c, err := openai.NewClient(openai.Config{BaseURL: url + "/", APIKeyEnv: "TEST_CHAT_KEY", Model: "gemini-test"})
	require.NoError(t, err)
	return c
}

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gemini-test", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "red dress", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"red dress, evening wear"}}]}`))
	}))
	defer srv.Close()

	out, err := newClient(t, srv.URL).Generate(context.Background(), "red dress")
	require.NoError(t, err)
	assert.Equal(t, "red dress, evening wear", out)
}

func TestClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantErr: "chat completion failed"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "failed to decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL).Generate(context.Background(), "q")
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_CHAT_KEY", "")
	_, err := openai.NewClient(openai.Config{APIKeyEnv: "TEST_CHAT_KEY", Model: "m"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_CHAT_KEY")
}
