package resolve

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// TransformFunc maps a resolved parameter value to a new value. arg is the
// optional transform argument. A transform that cannot handle its input
// returns the input unchanged.
type TransformFunc func(value, arg any) any

var transforms = map[string]TransformFunc{
	"uppercase":  transformUpper,
	"lowercase":  transformLower,
	"kebab-case": func(v, _ any) any { return caseJoin(v, "-") },
	"snake-case": func(v, _ any) any { return caseJoin(v, "_") },
	"multiply":   transformMultiply,
	"add":        transformAdd,
	"round":      transformRound,
	"join":       transformJoin,
	"first":      transformFirst,
	"last":       transformLast,
	"default":    transformDefault,
}

// ApplyTransform runs the named transform. Unknown names leave value as is.
func ApplyTransform(name string, value, arg any) any {
	fn, ok := transforms[name]
	if !ok {
		return value
	}
	return fn(value, arg)
}

// Transforms returns the names of the registered transforms.
func Transforms() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func transformUpper(v, _ any) any {
	if s, ok := v.(string); ok {
		return strings.ToUpper(s)
	}
	return v
}

func transformLower(v, _ any) any {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v
}

func caseJoin(v any, sep string) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return strings.Join(words(s), sep)
}

// words splits s on non-alphanumerics and lower-to-upper case changes and
// lowercases every word.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && i > 0 && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

func transformMultiply(v, arg any) any {
	n, ok := numeric(v)
	if !ok {
		return v
	}
	factor, ok := pattern.ToFloat64(arg)
	if !ok {
		factor = 1
	}
	return n * factor
}

func transformAdd(v, arg any) any {
	n, ok := numeric(v)
	if !ok {
		return v
	}
	delta, _ := pattern.ToFloat64(arg)
	return n + delta
}

const maxRoundDecimals = 15

func transformRound(v, arg any) any {
	n, ok := numeric(v)
	if !ok {
		return v
	}
	decimals, _ := pattern.ToFloat64(arg)
	if math.IsNaN(decimals) {
		decimals = 0
	}
	// float64 carries at most 15-17 significant digits.
	decimals = math.Min(math.Max(math.Trunc(decimals), 0), maxRoundDecimals)
	scale := math.Pow10(int(decimals))
	scaled := n * scale
	if math.IsInf(scaled, 0) {
		return n
	}
	return math.Round(scaled) / scale
}

func transformJoin(v, arg any) any {
	sep, ok := arg.(string)
	if !ok {
		sep = ","
	}
	switch list := v.(type) {
	case []any:
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = pattern.Stringify(item)
		}
		return strings.Join(parts, sep)
	case []string:
		return strings.Join(list, sep)
	}
	return v
}

func transformFirst(v, _ any) any {
	switch list := v.(type) {
	case []any:
		if len(list) == 0 {
			return nil
		}
		return list[0]
	case []string:
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func transformLast(v, _ any) any {
	switch list := v.(type) {
	case []any:
		if len(list) == 0 {
			return nil
		}
		return list[len(list)-1]
	case []string:
		if len(list) == 0 {
			return nil
		}
		return list[len(list)-1]
	}
	return v
}

func transformDefault(v, arg any) any {
	if v == nil {
		return arg
	}
	if s, ok := v.(string); ok && s == "" {
		return arg
	}
	return v
}

func numeric(v any) (float64, bool) {
	if n, ok := pattern.ToFloat64(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		return parseNumber(s)
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
