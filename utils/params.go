package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NLU platforms deliver the same logical parameter as a scalar, a list, or a
// nested record depending on how the entity was extracted. The helpers below
// are the single place that flattens those shapes; callers choose the
// sentinel for anything unparsable.

// displayKeys are checked in order when reducing a record to a string.
var displayKeys = []string{"name", "value", "original", "displayName"}

// DisplayString reduces an arbitrary parameter value to a best-effort display
// string. Records prefer a name/value/original/displayName field; lists use
// their first element; anything else falls back to a literal rendering.
func DisplayString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		// JSON numbers decode as float64; render integers without the decimal.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]interface{}:
		for _, key := range displayKeys {
			if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", val)
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
		return DisplayString(val[0])
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// AsList normalizes a parameter into a slice of items: nil stays empty, a
// list is returned as-is, and any scalar or record becomes a one-item list.
func AsList(v interface{}) []interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return val
	default:
		return []interface{}{v}
	}
}

// ParseIntParam parses a parameter as an integer. The ok flag is false for
// missing, blank, or non-numeric input; the caller picks the sentinel.
func ParseIntParam(v interface{}) (int, bool) {
	s := DisplayString(v)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate "7.0" style values from NLU number entities.
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f), true
		}
		return 0, false
	}
	return n, true
}

// ParseFloatParam parses a parameter as a float. Same ok-flag contract as
// ParseIntParam.
func ParseFloatParam(v interface{}) (float64, bool) {
	s := DisplayString(v)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsBlankParam reports whether the parameter carries no usable value.
func IsBlankParam(v interface{}) bool {
	return DisplayString(v) == ""
}
