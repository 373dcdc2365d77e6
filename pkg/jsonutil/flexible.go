package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal json.Number
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal.String()
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Objects and arrays are returned verbatim
	return string(raw)
}

// FlexibleInt64Value converts a json.RawMessage holding an id to an int64.
// Accepts JSON numbers and numeric strings ("42"), which is how MCP clients
// and form posts tend to send ids. Returns (0, false) for null, empty,
// non-numeric, fractional or non-positive values.
func FlexibleInt64Value(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(FlexibleStringValue(raw))
	if s == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// OptionalID reads an optional entity id. Missing, null and blank values
// return (nil, nil); anything else must be a positive integer, as a number or
// a numeric string.
func OptionalID(raw json.RawMessage) (*int64, error) {
	if strings.TrimSpace(FlexibleStringValue(raw)) == "" {
		return nil, nil
	}
	id, ok := FlexibleInt64Value(raw)
	if !ok {
		return nil, fmt.Errorf("must be a positive integer id, got %s", raw)
	}
	return &id, nil
}

// FlexibleStringMap decodes a JSON object whose values may be strings, numbers
// or booleans into a map[string]string. Used for locale-keyed names.
func FlexibleStringMap(raw json.RawMessage) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}

	result := make(map[string]string, len(fields))
	for key, value := range fields {
		result[key] = FlexibleStringValue(value)
	}
	return result, nil
}
