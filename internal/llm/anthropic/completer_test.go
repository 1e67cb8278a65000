package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/llm"
)

func TestNewCompleter_MissingToken(t *testing.T) {
	_, err := NewCompleter("", "")
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
}

func TestCompleter_Complete(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "{\"Name:\": \"NOMATCH\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	c, err := NewCompleter(server.URL, "", WithToken("secret"), WithClient(server.Client()))
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "map these")
	require.NoError(t, err)
	assert.Equal(t, `{"Name:": "NOMATCH"}`, out)
	assert.Equal(t, DefaultModel, received["model"])
	assert.EqualValues(t, maxTokens, received["max_tokens"])
}
