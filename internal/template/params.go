package template

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// checkParameters validates supplied values against the declared parameters.
// It returns the effective parameter map (supplied values plus declared
// defaults), errors that abort expansion and warnings for unknown keys.
func checkParameters(declared []pattern.PatternParameter, supplied map[string]any) (map[string]any, []string, []string) {
	var errs, warns []string
	effective := make(map[string]any, len(supplied)+len(declared))
	for k, v := range supplied {
		effective[k] = v
	}

	known := make(map[string]bool, len(declared))
	for _, p := range declared {
		known[p.ID] = true
		v, present := supplied[p.ID]
		if !present || v == nil {
			if p.Required {
				errs = append(errs, fmt.Sprintf("Required parameter '%s' is missing", p.ID))
				continue
			}
			if p.DefaultValue != nil {
				effective[p.ID] = pattern.CloneValue(p.DefaultValue)
			}
			continue
		}
		if msg := checkType(p, v); msg != "" {
			errs = append(errs, msg)
			continue
		}
		errs = append(errs, checkBounds(p, v)...)
	}

	var unknown []string
	for k := range supplied {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		warns = append(warns, fmt.Sprintf("Unknown parameter '%s' is ignored by this template", k))
	}
	return effective, errs, warns
}

func checkType(p pattern.PatternParameter, v any) string {
	switch p.Type {
	case pattern.ParamString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("Parameter '%s' must be a string", p.ID)
		}
	case pattern.ParamNumber:
		n, ok := pattern.ToFloat64(v)
		if !ok || math.IsNaN(n) {
			return fmt.Sprintf("Parameter '%s' must be a number", p.ID)
		}
	case pattern.ParamBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("Parameter '%s' must be a boolean", p.ID)
		}
	case pattern.ParamSelect:
		if !isOption(p.Options, v) {
			return fmt.Sprintf("Parameter '%s' must be one of %s", p.ID, optionList(p.Options))
		}
	case pattern.ParamMultiselect:
		items, ok := listOf(v)
		if !ok {
			return fmt.Sprintf("Parameter '%s' must be a list", p.ID)
		}
		for _, item := range items {
			if !isOption(p.Options, item) {
				return fmt.Sprintf("Parameter '%s' contains invalid option %s", p.ID, pattern.Stringify(item))
			}
		}
	}
	return ""
}

func checkBounds(p pattern.PatternParameter, v any) []string {
	if p.Validation == nil {
		return nil
	}
	var errs []string
	size, what := 0.0, ""
	if n, ok := pattern.ToFloat64(v); ok {
		size, what = n, "value"
	} else if s, ok := v.(string); ok {
		size, what = float64(len([]rune(s))), "length"
	}
	if what != "" {
		if lo := p.Validation.Min; lo != nil && size < *lo {
			errs = append(errs, fmt.Sprintf("Parameter '%s' %s must be at least %s", p.ID, what, pattern.Stringify(*lo)))
		}
		if hi := p.Validation.Max; hi != nil && size > *hi {
			errs = append(errs, fmt.Sprintf("Parameter '%s' %s must be at most %s", p.ID, what, pattern.Stringify(*hi)))
		}
	}
	if p.Validation.Pattern != "" {
		re, err := regexp.Compile(p.Validation.Pattern)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Parameter '%s' has an invalid validation pattern: %v", p.ID, err))
		} else if !re.MatchString(pattern.Stringify(v)) {
			errs = append(errs, fmt.Sprintf("Parameter '%s' does not match pattern %s", p.ID, p.Validation.Pattern))
		}
	}
	return errs
}

func isOption(opts []pattern.ParameterOption, v any) bool {
	for _, o := range opts {
		if sameValue(o.Value, v) {
			return true
		}
	}
	return false
}

func sameValue(a, b any) bool {
	an, aok := pattern.ToFloat64(a)
	bn, bok := pattern.ToFloat64(b)
	if aok && bok {
		return an == bn
	}
	return reflect.DeepEqual(a, b)
}

func listOf(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func optionList(opts []pattern.ParameterOption) string {
	vals := make([]any, len(opts))
	for i, o := range opts {
		vals[i] = o.Value
	}
	return "[" + pattern.Stringify(vals) + "]"
}
