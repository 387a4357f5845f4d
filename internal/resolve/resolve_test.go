package resolve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/canvas-infra/patterns/internal/pattern"
)

func testContext() *pattern.Context {
	return &pattern.Context{
		Provider: "aws",
		Parameters: map[string]any{
			"project_name":      "acme",
			"instance_count":    3.0,
			"enable_monitoring": true,
			"regions":           []any{"us-east-1", "eu-west-1"},
			"env":               "prod",
			"empty":             "",
		},
	}
}

func TestInterpolate(t *testing.T) {
	params := testContext().Parameters

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single token", "{{project_name}}-web", "acme-web"},
		{"multiple tokens", "{{project_name}}/{{env}}", "acme/prod"},
		{"number renders without fraction", "count={{instance_count}}", "count=3"},
		{"whitespace inside braces", "{{ project_name }}", "acme"},
		{"unresolved token left verbatim", "{{missing}}-x", "{{missing}}-x"},
		{"no tokens", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.in, params))
		})
	}
}

func TestValue_ParamRef(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, "acme", Value(Ref("project_name"), ctx))
	assert.Equal(t, "fallback", Value(RefOr("missing", "fallback"), ctx))
	assert.Nil(t, Value(Ref("missing"), ctx))
	assert.Equal(t, "ACME", Value(Ref("project_name").With("uppercase", nil), ctx))
	assert.Equal(t, 6.0, Value(Ref("instance_count").With("multiply", 2), ctx))
	assert.Equal(t, "us-east-1|eu-west-1", Value(Ref("regions").With("join", "|"), ctx))
	assert.Equal(t, "eu-west-1", Value(Ref("regions").With("last", nil), ctx))
	assert.Equal(t, "n/a", Value(Ref("empty").With("default", "n/a"), ctx))
}

func TestValue_MapForms(t *testing.T) {
	ctx := testContext()

	ref := map[string]any{"type": "parameter", "name": "project_name", "transform": "uppercase"}
	assert.Equal(t, "ACME", Value(ref, ctx))

	withDefault := map[string]any{"type": "parameter", "name": "nope", "defaultValue": 42.0}
	assert.Equal(t, 42.0, Value(withDefault, ctx))

	cond := map[string]any{
		"type":       "conditional",
		"condition":  map[string]any{"operator": "greater", "left": map[string]any{"type": "parameter", "name": "instance_count"}, "right": 2.0},
		"trueValue":  "large",
		"falseValue": "small",
	}
	assert.Equal(t, "large", Value(cond, ctx))

	config := map[string]any{
		"name":  "{{project_name}}-db",
		"size":  map[string]any{"type": "parameter", "name": "instance_count"},
		"nested": map[string]any{
			"tags": []any{"{{env}}", "static"},
		},
	}
	got := Value(config, ctx)
	assert.Equal(t, map[string]any{
		"name":   "acme-db",
		"size":   3.0,
		"nested": map[string]any{"tags": []any{"prod", "static"}},
	}, got)
	// input untouched
	assert.Equal(t, "{{project_name}}-db", config["name"])
}

func TestValue_ConditionalIsLazy(t *testing.T) {
	ctx := testContext()
	// the unselected branch would resolve to its default; only the selected one is used
	v := If(IsTrue("enable_monitoring"), Ref("project_name"), RefOr("missing", "unused"))
	assert.Equal(t, "acme", Value(v, ctx))

	v = If(IsTrue("missing_flag"), "yes", "no")
	assert.Equal(t, "no", Value(v, ctx))
}

func TestValue_Deterministic(t *testing.T) {
	ctx := testContext()
	v := map[string]any{
		"a": Ref("project_name").With("kebab-case", nil),
		"b": If(Eq("env", "prod"), 3.0, 1.0),
		"c": "{{project_name}}-{{env}}",
	}
	first := Value(v, ctx)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Value(v, ctx))
	}
}

func TestValue_NilContext(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "d", Value(RefOr("x", "d"), nil))
		assert.Equal(t, "{{x}}", Value("{{x}}", nil))
		assert.False(t, Evaluate(IsTrue("x"), nil))
	})
}

func TestNumber(t *testing.T) {
	ctx := testContext()
	n, ok := Number(Ref("instance_count"), ctx)
	require.True(t, ok)
	assert.Equal(t, 3.0, n)

	n, ok = Number("{{instance_count}}", ctx)
	require.True(t, ok)
	assert.Equal(t, 3.0, n)

	_, ok = Number("abc", ctx)
	assert.False(t, ok)
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name  string
		value any
		arg   any
		want  any
	}{
		{"kebab-case", "My Project_Name", nil, "my-project-name"},
		{"snake-case", "myProjectName", nil, "my_project_name"},
		{"kebab-case", "HTTPServer", nil, "http-server"},
		{"lowercase", "ACME", nil, "acme"},
		{"add", 2.0, 3.0, 5.0},
		{"add", "2", nil, 2.0},
		{"round", 2.456, 1.0, 2.5},
		{"round", 2.5, nil, 3.0},
		{"round", 2.456, 400.0, 2.456},
		{"round", 1e300, 15.0, 1e300},
		{"round", 1234.5, -2.0, 1235.0},
		{"multiply", "not a number", 2.0, "not a number"},
		{"first", []any{"a", "b"}, nil, "a"},
		{"first", []any{}, nil, nil},
		{"join", []string{"a", "b"}, nil, "a,b"},
		{"default", nil, "x", "x"},
		{"unknown-transform", "same", nil, "same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyTransform(tt.name, tt.value, tt.arg))
		})
	}
	assert.Len(t, Transforms(), 11)
}

func TestEvaluate_Operators(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"equals string", Eq("env", "prod"), true},
		{"equals mismatch", Eq("env", "dev"), false},
		{"equals numeric across kinds", Binary{Op: OpEquals, Left: Param{Name: "instance_count"}, Right: Literal{Value: 3}}, true},
		{"equals string vs number", Binary{Op: OpEquals, Left: Literal{Value: "3"}, Right: Literal{Value: 3.0}}, false},
		{"greater", Binary{Op: OpGreater, Left: Param{Name: "instance_count"}, Right: Literal{Value: 2.0}}, true},
		{"less", Binary{Op: OpLess, Left: Param{Name: "instance_count"}, Right: Literal{Value: 2.0}}, false},
		{"greater non numeric", Binary{Op: OpGreater, Left: Param{Name: "env"}, Right: Literal{Value: 2.0}}, false},
		{"contains array member", Binary{Op: OpContains, Left: Param{Name: "regions"}, Right: Literal{Value: "eu-west-1"}}, true},
		{"contains array non member", Binary{Op: OpContains, Left: Param{Name: "regions"}, Right: Literal{Value: "ap-south-1"}}, false},
		{"contains substring", Binary{Op: OpContains, Left: Param{Name: "project_name"}, Right: Literal{Value: "cm"}}, true},
		{"and both true", Binary{Op: OpAnd, Left: IsTrue("enable_monitoring"), Right: Eq("env", "prod")}, true},
		{"and one false", Binary{Op: OpAnd, Left: IsTrue("enable_monitoring"), Right: Eq("env", "dev")}, false},
		{"or one true", Binary{Op: OpOr, Left: Eq("env", "dev"), Right: IsTrue("enable_monitoring")}, true},
		{"not", Unary{Op: OpNot, Operand: Eq("env", "dev")}, true},
		{"not binary form", Binary{Op: OpNot, Left: Param{Name: "enable_monitoring"}}, false},
		{"nested", Binary{Op: OpAnd,
			Left:  Binary{Op: OpOr, Left: Eq("env", "dev"), Right: Eq("env", "prod")},
			Right: Unary{Op: OpNot, Operand: Param{Name: "missing"}}}, true},
		{"pointer nodes", &Binary{Op: OpEquals, Left: &Param{Name: "env"}, Right: &Literal{Value: "prod"}}, true},
		{"unknown operator", Binary{Op: "between", Left: Literal{Value: 1}, Right: Literal{Value: 2}}, false},
		{"nil expression", nil, false},
		{"bare parameter truthiness", Param{Name: "enable_monitoring"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expr, ctx))
		})
	}
}

func TestEvaluate_MissingOperandIsFalse(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		expr Expr
	}{
		{"and missing right", Binary{Op: OpAnd, Left: Literal{Value: true}}},
		{"and missing left", Binary{Op: OpAnd, Right: Literal{Value: true}}},
		{"or missing right", Binary{Op: OpOr, Left: Literal{Value: true}}},
		{"or undefined parameter", Binary{Op: OpOr, Left: Literal{Value: true}, Right: Param{Name: "nope"}}},
		{"and undefined parameter", Binary{Op: OpAnd, Left: Param{Name: "nope"}, Right: Literal{Value: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, Evaluate(tt.expr, ctx))
			})
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(""))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(-1))
	assert.True(t, Truthy([]any{}))
	assert.True(t, Truthy(map[string]any{}))
}

func TestCondition_JSONRoundTrip(t *testing.T) {
	raw := `{"operator":"and","left":{"operator":"equals","left":{"type":"parameter","name":"env"},"right":"prod"},"right":{"operator":"not","left":{"type":"parameter","name":"missing"}}}`

	var c Condition
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.True(t, c.Holds(testContext()))

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestCondition_YAML(t *testing.T) {
	doc := `
operator: greater
left:
  type: parameter
  name: instance_count
right: 1
`
	var c Condition
	require.NoError(t, yaml.Unmarshal([]byte(doc), &c))
	assert.Equal(t, Binary{Op: OpGreater, Left: Param{Name: "instance_count"}, Right: Literal{Value: 1}}, c.Expr)
	assert.True(t, c.Holds(testContext()))
}

func TestCondition_NilHolds(t *testing.T) {
	var c *Condition
	assert.True(t, c.Holds(testContext()))
}

func TestParamRef_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Ref("project_name").With("uppercase", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"parameter","name":"project_name","transform":"uppercase"}`, string(out))

	lifted := Lift(map[string]any{"type": "parameter", "name": "project_name", "transform": "uppercase"})
	assert.Equal(t, ParamRef{Name: "project_name", Transform: "uppercase"}, lifted)
}
