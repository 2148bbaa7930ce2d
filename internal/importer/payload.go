package importer

import "strconv"

// Payload helpers for provider JSON extracted with jmespath. They are
// total on purpose: a missing or malformed optional field yields the
// zero value instead of aborting an otherwise valid record.

// AsString converts a jmespath result to a string. Numbers are
// formatted without an exponent so numeric ids survive extraction.
func AsString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// AsFloat converts a jmespath result to a float64.
func AsFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// AsBool converts a jmespath result to a bool.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// AsSlice converts a jmespath result to a slice.
func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// AsMap converts a jmespath result to a map.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
