package mapping

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/a3tai/mcp-form-filler/internal/profile"
)

// FillPlan maps form field names to the string values to write.
type FillPlan map[string]string

// Resolve looks up every matched target in p. Unmatched labels are left out of the plan.
func Resolve(m FieldMapping, p profile.Profile) FillPlan {
	plan := make(FillPlan, len(m))

	for _, e := range m {
		if !e.Target.Matched() {
			continue
		}
		plan[e.Label] = resolveTarget(e.Label, e.Target, p)
	}

	return plan
}

// ResolveAny resolves an untyped mapping such as one decoded from tool input. Anything but an
// object yields an empty plan.
func ResolveAny(v any, p profile.Profile) FillPlan {
	switch m := v.(type) {
	case FieldMapping:
		return Resolve(m, p)
	case map[string]string:
		mapping := make(FieldMapping, 0, len(m))
		for label, target := range m {
			mapping = append(mapping, Entry{Label: label, Target: ParseTarget(target)})
		}
		return Resolve(mapping, p)
	case map[string]any:
		mapping := make(FieldMapping, 0, len(m))
		for label, target := range m {
			mapping = append(mapping, Entry{Label: label, Target: targetOf(label, target)})
		}
		return Resolve(mapping, p)
	default:
		slog.Error("Cannot resolve mapping that is not an object", "type", fmt.Sprintf("%T", v))
		return FillPlan{}
	}
}

func resolveTarget(label string, t Target, p profile.Profile) string {
	if t.Kind == SingleKey {
		v, ok := p.Lookup(t.Keys[0])
		if !ok {
			slog.Warn("Profile key not found", "key", t.Keys[0], "field", label)
			return ""
		}
		return FormatValue(v)
	}

	parts := make([]string, 0, len(t.Keys))
	for _, key := range t.Keys {
		v, ok := p.Lookup(key)
		if !ok {
			slog.Warn("Profile key of composite not found", "key", key, "composite", t.String(), "field", label)
			continue
		}
		parts = append(parts, FormatValue(v))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// FormatValue renders a profile scalar as form text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
