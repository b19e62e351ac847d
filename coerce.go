package uploadkit

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// ToStringArray coerces a form value into a string array:
//
//   - nil becomes an empty array
//   - []string is returned as a copy; []any has every element stringified
//   - a string holding a JSON array yields its elements, stringified
//   - a string with commas is split, trimmed, and empty segments dropped
//   - any other non-blank string becomes a one-element array
//
// Blank strings become an empty array.
func ToStringArray(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, t...)
	case []any:
		return stringifyAll(t)
	case string:
		return splitString(t)
	default:
		return []string{stringify(t)}
	}
}

func splitString(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	var parsed any
	if err := sonic.UnmarshalString(s, &parsed); err == nil {
		if arr, ok := parsed.([]any); ok {
			return stringifyAll(arr)
		}
	}

	if !strings.Contains(s, ",") {
		return []string{s}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringifyAll(items []any) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = stringify(it)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := sonic.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
