package pattern

import (
	"fmt"
	"math"
	"strconv"
)

// Properties is an untyped property bag. Values are limited to string,
// float64 (other numeric kinds are accepted on input), bool, []any,
// map[string]any and nil.
type Properties map[string]any

// Clone returns a deep copy of the bag.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and slices inside a property value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = CloneValue(vv)
		}
		return out
	case Properties:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = CloneValue(vv)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// GetString gets a string property; empty if missing or not a string.
func GetString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// ToFloat64 converts any Go numeric kind to float64.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// Stringify renders a property value the way the canvas host prints it:
// whole numbers without a fraction, nil as "undefined".
func Stringify(v any) string {
	if v == nil {
		return "undefined"
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	if n, ok := ToFloat64(v); ok {
		if math.IsNaN(n) {
			return "NaN"
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	if list, ok := v.([]any); ok {
		out := ""
		for i, item := range list {
			if i > 0 {
				out += ","
			}
			if item != nil {
				out += Stringify(item)
			}
		}
		return out
	}
	return fmt.Sprintf("%v", v)
}
