package executor

import (
	"encoding/json"
	"strconv"
)

// Downstream services disagree on the key under which they return an
// identifier. Each collaborator contract declares its accepted aliases once,
// in preference order, instead of probing ad hoc at every call site.

// IntField returns the first alias present in data that holds an integer
// value. JSON numbers, numeric strings, and json.Number are accepted.
func IntField(data map[string]any, aliases ...string) (int64, bool) {
	for _, key := range aliases {
		v, ok := data[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, true
			}
		case int64:
			return n, true
		}
	}
	return 0, false
}

// StringField returns the first alias present in data, stringifying numeric
// values. Empty strings do not count as present.
func StringField(data map[string]any, aliases ...string) (string, bool) {
	for _, key := range aliases {
		v, ok := data[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		case json.Number:
			return s.String(), true
		}
	}
	return "", false
}
