// Package resolve turns template values into concrete values. A template
// value is a literal, a parameter reference or a conditional value; strings
// may carry {{name}} interpolation tokens.
//
// Resolution is permissive: it never returns an error and never panics on
// user data. Anything that cannot be resolved falls back to the declared
// default or to nil.
package resolve

import (
	"encoding/json"
	"regexp"

	"github.com/canvas-infra/patterns/internal/pattern"
)

const (
	refTypeParameter   = "parameter"
	refTypeConditional = "conditional"
)

var interpolationToken = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// ParamRef reads a context parameter, optionally passing it through a named
// transform. An absent parameter resolves to Default.
type ParamRef struct {
	Name         string `json:"name" yaml:"name"`
	Default      any    `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Transform    string `json:"transform,omitempty" yaml:"transform,omitempty"`
	TransformArg any    `json:"transformArg,omitempty" yaml:"transformArg,omitempty"`
}

// Ref references a parameter without a default.
func Ref(name string) ParamRef {
	return ParamRef{Name: name}
}

// RefOr references a parameter with a default.
func RefOr(name string, def any) ParamRef {
	return ParamRef{Name: name, Default: def}
}

// With returns a copy of r with a transform attached.
func (r ParamRef) With(transform string, arg any) ParamRef {
	r.Transform = transform
	r.TransformArg = arg
	return r
}

// MarshalJSON writes the reference in its tagged map form.
func (r ParamRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toMap())
}

// MarshalYAML writes the reference in its tagged map form.
func (r ParamRef) MarshalYAML() (any, error) {
	return r.toMap(), nil
}

func (r ParamRef) toMap() map[string]any {
	m := map[string]any{"type": refTypeParameter, "name": r.Name}
	if r.Default != nil {
		m["defaultValue"] = r.Default
	}
	if r.Transform != "" {
		m["transform"] = r.Transform
	}
	if r.TransformArg != nil {
		m["transformArg"] = r.TransformArg
	}
	return m
}

// Conditional selects between two values. Only the selected branch is resolved.
type Conditional struct {
	Condition Condition
	True      any
	False     any
}

// If builds a conditional value.
func If(expr Expr, trueValue, falseValue any) Conditional {
	return Conditional{Condition: Condition{Expr: expr}, True: trueValue, False: falseValue}
}

// MarshalJSON writes the conditional in its tagged map form.
func (c Conditional) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toMap())
}

// MarshalYAML writes the conditional in its tagged map form.
func (c Conditional) MarshalYAML() (any, error) {
	return c.toMap(), nil
}

func (c Conditional) toMap() map[string]any {
	return map[string]any{
		"type":       refTypeConditional,
		"condition":  ExprToRaw(c.Condition.Expr),
		"trueValue":  c.True,
		"falseValue": c.False,
	}
}

// Value resolves v against ctx. Maps and slices are resolved element by
// element into fresh copies; v itself is never modified.
func Value(v any, ctx *pattern.Context) any {
	switch t := v.(type) {
	case nil:
		return nil
	case ParamRef:
		return resolveRef(t, ctx)
	case *ParamRef:
		if t == nil {
			return nil
		}
		return resolveRef(*t, ctx)
	case Conditional:
		return resolveConditional(t, ctx)
	case *Conditional:
		if t == nil {
			return nil
		}
		return resolveConditional(*t, ctx)
	case string:
		return Interpolate(t, params(ctx))
	case map[string]any:
		return resolveMap(t, ctx)
	case pattern.Properties:
		out := resolveMap(t, ctx)
		if m, ok := out.(map[string]any); ok {
			return pattern.Properties(m)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Value(item, ctx)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = Interpolate(item, params(ctx))
		}
		return out
	}
	return v
}

// String resolves v and renders the result as a string. nil becomes "".
func String(v any, ctx *pattern.Context) string {
	out := Value(v, ctx)
	if out == nil {
		return ""
	}
	return pattern.Stringify(out)
}

// Number resolves v into a float64. Numeric strings are parsed; anything
// else yields 0 and false.
func Number(v any, ctx *pattern.Context) (float64, bool) {
	out := Value(v, ctx)
	if n, ok := pattern.ToFloat64(out); ok {
		return n, true
	}
	if s, ok := out.(string); ok {
		return parseNumber(s)
	}
	return 0, false
}

// Properties resolves every value in a configuration map.
func Properties(m map[string]any, ctx *pattern.Context) pattern.Properties {
	if m == nil {
		return nil
	}
	out, _ := asMap(resolveMap(m, ctx))
	return out
}

// Interpolate replaces {{name}} tokens with stringified parameters. Tokens
// naming absent parameters are left verbatim.
func Interpolate(s string, params map[string]any) string {
	if len(params) == 0 {
		return s
	}
	return interpolationToken.ReplaceAllStringFunc(s, func(token string) string {
		name := interpolationToken.FindStringSubmatch(token)[1]
		v, ok := params[name]
		if !ok || v == nil {
			return token
		}
		return pattern.Stringify(v)
	})
}

func resolveRef(r ParamRef, ctx *pattern.Context) any {
	v, ok := ctx.Param(r.Name)
	if !ok || v == nil {
		return pattern.CloneValue(r.Default)
	}
	v = pattern.CloneValue(v)
	if r.Transform != "" {
		return ApplyTransform(r.Transform, v, r.TransformArg)
	}
	return v
}

func resolveConditional(c Conditional, ctx *pattern.Context) any {
	if Evaluate(c.Condition.Expr, ctx) {
		return Value(c.True, ctx)
	}
	return Value(c.False, ctx)
}

func resolveMap(m map[string]any, ctx *pattern.Context) any {
	if ref, ok := refFromMap(m); ok {
		return Value(ref, ctx)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Value(v, ctx)
	}
	return out
}

// Lift converts a decoded {"type":"parameter"} or {"type":"conditional"} map
// into its typed form. Other values are returned unchanged.
func Lift(v any) any {
	m, ok := asMap(v)
	if !ok {
		return v
	}
	if ref, ok := refFromMap(m); ok {
		return ref
	}
	return v
}

func refFromMap(m map[string]any) (any, bool) {
	switch t, _ := m["type"].(string); t {
	case refTypeParameter:
		name, ok := m["name"].(string)
		if !ok {
			return nil, false
		}
		ref := ParamRef{Name: name, Default: m["defaultValue"], TransformArg: m["transformArg"]}
		if ref.Default == nil {
			ref.Default = m["default"]
		}
		switch tr := m["transform"].(type) {
		case string:
			ref.Transform = tr
		case map[string]any:
			ref.Transform, _ = tr["name"].(string)
			if arg, has := tr["arg"]; has {
				ref.TransformArg = arg
			}
		}
		return ref, true
	case refTypeConditional:
		if _, has := m["condition"]; !has {
			return nil, false
		}
		return Conditional{
			Condition: Condition{Expr: ParseExpr(m["condition"])},
			True:      m["trueValue"],
			False:     m["falseValue"],
		}, true
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case pattern.Properties:
		return t, true
	}
	return nil, false
}

func params(ctx *pattern.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	return ctx.Parameters
}
