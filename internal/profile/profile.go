// Package profile loads the flat user data a form is filled from.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of a profile document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Profile is a flat map of profile keys to scalar values.
type Profile map[string]any

// Keys returns the profile keys in sorted order.
func (p Profile) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value of key and whether it is present.
func (p Profile) Lookup(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// FormatFromPath infers the format from a file extension; anything but .yaml/.yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads a profile document from path.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	p, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return p, nil
}

// Parse decodes a profile document. The top level must be an object whose values are scalars.
func Parse(data []byte, format Format) (Profile, error) {
	var raw map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML profile: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format: %s", format)
	}

	if raw == nil {
		return nil, fmt.Errorf("profile must be an object")
	}

	for key, value := range raw {
		if !isScalar(value) {
			return nil, fmt.Errorf("profile key %q has a nested value; only scalars are supported", key)
		}
	}

	return Profile(raw), nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return true
	default:
		return false
	}
}
