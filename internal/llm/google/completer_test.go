package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/llm"
)

func TestNewCompleter(t *testing.T) {
	_, err := NewCompleter("")
	assert.ErrorIs(t, err, llm.ErrMissingCredential)

	c, err := NewCompleter("", WithToken("key"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)

	c, err = NewCompleter("gemini-1.5-pro", WithToken("key"), WithURL("http://localhost"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", c.model)
	assert.Equal(t, "http://localhost", c.url)
}
