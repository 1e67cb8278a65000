package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in       string
		expected Target
	}{
		{"NOMATCH", NewUnmatched()},
		{"", NewUnmatched()},
		{"  dob ", NewSingleKey("dob")},
		{"first_name, last_name", NewCompositeKeys("first_name", "last_name")},
		{"a,,b,", NewCompositeKeys("a", "b")},
		{" , ", NewUnmatched()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTarget(tt.in))
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		expected  FieldMapping
		expectErr bool
	}{
		{
			name: "order preserved",
			text: `{"b": "x", "a": "y"}`,
			expected: FieldMapping{
				{Label: "b", Target: NewSingleKey("x")},
				{Label: "a", Target: NewSingleKey("y")},
			},
		},
		{
			name:     "bare fence",
			text:     "```\n{\"a\": \"NOMATCH\"}\n```",
			expected: FieldMapping{{Label: "a", Target: NewUnmatched()}},
		},
		{
			name:     "non string value",
			text:     `{"a": 3}`,
			expected: FieldMapping{{Label: "a", Target: NewUnmatched()}},
		},
		{
			name:     "duplicate label keeps first position",
			text:     `{"a": "x", "b": "y", "a": "z"}`,
			expected: FieldMapping{{Label: "a", Target: NewSingleKey("z")}, {Label: "b", Target: NewSingleKey("y")}},
		},
		{name: "empty", text: "   ", expectErr: true},
		{name: "string", text: `"NOMATCH"`, expectErr: true},
		{name: "trailing prose", text: `{"a": "b"} sure, here you go`, expectErr: true},
		{name: "second object", text: `{"a": "b"} {"c": "d"}`, expectErr: true},
		{
			name:     "trailing whitespace",
			text:     "{\"a\": \"b\"}\n\n",
			expected: FieldMapping{{Label: "a", Target: NewSingleKey("b")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.text)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFieldMappingJSON(t *testing.T) {
	m := FieldMapping{
		{Label: "Name:", Target: NewCompositeKeys("first", "last")},
		{Label: "Sig", Target: NewUnmatched()},
		{Label: "DOB", Target: NewSingleKey("dob")},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"Name:":"first, last","Sig":"NOMATCH","DOB":"dob"}`, string(data))

	var back FieldMapping
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}
