package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrNotObject is returned when a model response is valid JSON but not an object.
var ErrNotObject = errors.New("response is not a JSON object")

// StripCodeFence removes a surrounding markdown code fence, with or without a language tag.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// ParseResponse decodes a model response into an ordered mapping.
func ParseResponse(text string) (FieldMapping, error) {
	return decodeOrdered([]byte(StripCodeFence(text)))
}

func decodeOrdered(data []byte) (FieldMapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty response")
		}
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	m := FieldMapping{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", label, err)
		}

		m = m.set(label, targetOf(label, value))
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected content after JSON object")
	}

	return m, nil
}

func targetOf(label string, value any) Target {
	switch v := value.(type) {
	case nil:
		return NewUnmatched()
	case string:
		return ParseTarget(v)
	default:
		slog.Warn("Ignoring non-string mapping value", "label", label, "value", v)
		return NewUnmatched()
	}
}
