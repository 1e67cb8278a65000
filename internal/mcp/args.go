package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/mapping"
)

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// stringSliceArg accepts a JSON array argument or a string holding one
func stringSliceArg(args map[string]any, key string) ([]string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%s must be an array of strings: %w", key, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}

// rawJSONArg returns an object argument as JSON. Strings are taken to already hold JSON.
func rawJSONArg(args map[string]any, key string) ([]byte, bool, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, false, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false, nil
		}
		return []byte(v), true, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("invalid %s: %w", key, err)
		}
		return data, true, nil
	}
}

func mappingArg(args map[string]any, key string) (mapping.FieldMapping, error) {
	data, ok, err := rawJSONArg(args, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}

	m, err := mapping.ParseResponse(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}

	return m, nil
}

// planArg reads a field name to value object; non-string values are formatted as text
func planArg(args map[string]any, key string) (map[string]string, error) {
	data, ok, err := rawJSONArg(args, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s must be an object: %w", key, err)
	}

	plan := make(map[string]string, len(raw))
	for field, value := range raw {
		plan[field] = mapping.FormatValue(value)
	}

	return plan, nil
}
