package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-filler/internal/llm"
)

type recordingCompleter struct {
	response string
	err      error
	prompts  []string
}

func (r *recordingCompleter) Complete(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.response, r.err
}

func TestMapper_ShortCircuits(t *testing.T) {
	tests := []struct {
		name      string
		completer *recordingCompleter
		labels    []string
		keys      []string
		expected  Result
	}{
		{
			name:     "no credential",
			labels:   []string{"Name:"},
			keys:     []string{"name"},
			expected: Result{Error: "credential not found"},
		},
		{
			name:      "no labels",
			completer: &recordingCompleter{},
			keys:      []string{"name"},
			expected:  Result{Info: "no fields to map"},
		},
		{
			name:      "no profile keys",
			completer: &recordingCompleter{},
			labels:    []string{"Name:"},
			expected:  Result{Info: "no profile keys to map to"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c llm.Completer
			if tt.completer != nil {
				c = tt.completer
			}

			got := NewMapper(c, 0).MapFields(context.Background(), tt.labels, tt.keys, "")

			assert.Equal(t, tt.expected, got)
			assert.False(t, got.OK())
			if tt.completer != nil {
				assert.Empty(t, tt.completer.prompts)
			}
		})
	}
}

func TestMapper_MapFields(t *testing.T) {
	c := &recordingCompleter{response: "```json\n{\n  \"Full Name\": \"first_name, last_name\",\n  \"Date of Birth\": \"dob\",\n  \"Signature\": \"NOMATCH\",\n  \"Notes\": null\n}\n```"}

	got := NewMapper(c, 0).MapFields(context.Background(),
		[]string{"Full Name", "Date of Birth", "Signature", "Notes"},
		[]string{"dob", "first_name", "last_name"},
		Hint(KindKYC, ""))

	require.True(t, got.OK())
	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], `"Date of Birth"`)
	assert.Contains(t, c.prompts[0], `"last_name"`)
	assert.Contains(t, c.prompts[0], "This is a KYC Form.")

	assert.Equal(t, FieldMapping{
		{Label: "Full Name", Target: NewCompositeKeys("first_name", "last_name")},
		{Label: "Date of Birth", Target: NewSingleKey("dob")},
		{Label: "Signature", Target: NewUnmatched()},
		{Label: "Notes", Target: NewUnmatched()},
	}, got.Mapping)
	assert.Equal(t, 2, got.Mapping.Matched())
}

func TestMapper_InvalidResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "I think Name maps to full_name."},
		{"array", `["Name:"]`},
		{"truncated", `{"Name:": "full_name"`},
		{"trailing prose", `{"Name:": "full_name"} sure, here you go`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &recordingCompleter{response: tt.response}
			got := NewMapper(c, 0).MapFields(context.Background(), []string{"Name:"}, []string{"full_name"}, "")

			assert.NotEmpty(t, got.Error)
			assert.Equal(t, tt.response, got.Raw)
			assert.Nil(t, got.Mapping)
		})
	}
}

func TestMapper_EmptyObjectIsNotAnError(t *testing.T) {
	c := &recordingCompleter{response: "{}"}
	got := NewMapper(c, 0).MapFields(context.Background(), []string{"Name:"}, []string{"full_name"}, "")

	assert.True(t, got.OK())
	assert.NotNil(t, got.Mapping)
	assert.Empty(t, got.Mapping)
}

func TestMapper_ModelError(t *testing.T) {
	c := &recordingCompleter{err: errors.New("quota exceeded")}
	got := NewMapper(c, 0).MapFields(context.Background(), []string{"Name:"}, []string{"full_name"}, "")

	assert.Contains(t, got.Error, "quota exceeded")
	assert.Empty(t, got.Raw)
	assert.Len(t, c.prompts, 1)
}

func TestMapper_TruncatesLabels(t *testing.T) {
	labels := make([]string, 160)
	for i := range labels {
		labels[i] = fmt.Sprintf("Field %d:", i)
	}

	c := &recordingCompleter{response: `{"Field 0:": "name"}`}
	got := NewMapper(c, 150).MapFields(context.Background(), labels, []string{"name"}, "")

	require.True(t, got.OK())
	require.Len(t, got.Dropped, 10)
	assert.Equal(t, "Field 150:", got.Dropped[0])
	assert.Contains(t, c.prompts[0], `"Field 149:"`)
	assert.NotContains(t, c.prompts[0], `"Field 150:"`)
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt([]string{"Name:"}, []string{"full_name"}, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are an intelligent assistant"))
	assert.Contains(t, prompt, "NOMATCH")
	assert.NotContains(t, prompt, "This is a")
}

func TestBuildPrompt_HintVerbatim(t *testing.T) {
	hint := "  The form is related to: a lease.\n"

	prompt, err := BuildPrompt([]string{"Name:"}, []string{"full_name"}, hint)
	require.NoError(t, err)
	assert.Contains(t, prompt, "\n"+hint+"\n")

	blank, err := BuildPrompt([]string{"Name:"}, []string{"full_name"}, " \t ")
	require.NoError(t, err)
	plain, err := BuildPrompt([]string{"Name:"}, []string{"full_name"}, "")
	require.NoError(t, err)
	assert.Equal(t, plain, blank)
}
