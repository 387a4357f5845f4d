package resolve

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// Condition wraps an expression so it can be decoded from the
// {"operator": ..., "left": ..., "right": ...} form used in pattern files.
type Condition struct {
	Expr Expr
}

// When wraps expr in a Condition.
func When(expr Expr) *Condition {
	return &Condition{Expr: expr}
}

// Holds evaluates the condition. A nil condition always holds.
func (c *Condition) Holds(ctx *pattern.Context) bool {
	if c == nil {
		return true
	}
	return Evaluate(c.Expr, ctx)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Expr = ParseExpr(raw)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(ExprToRaw(c.Expr))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Expr = ParseExpr(raw)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Condition) MarshalYAML() (any, error) {
	return ExprToRaw(c.Expr), nil
}

// ParseExpr converts a decoded expression map into an expression tree.
// Maps with an "operator" key become operator nodes, {"type":"parameter"}
// maps become parameter reads and anything else is a literal.
func ParseExpr(raw any) Expr {
	if raw == nil {
		return nil
	}
	m, ok := asMap(raw)
	if !ok {
		return Literal{Value: raw}
	}
	if op, ok := m["operator"].(string); ok {
		if Operator(op) == OpNot {
			target, has := m["operand"]
			if !has {
				target = m["left"]
			}
			return Unary{Op: OpNot, Operand: ParseExpr(target)}
		}
		return Binary{Op: Operator(op), Left: ParseExpr(m["left"]), Right: ParseExpr(m["right"])}
	}
	if t, _ := m["type"].(string); t == refTypeParameter {
		name, _ := m["name"].(string)
		return Param{Name: name}
	}
	return Literal{Value: raw}
}

// ExprToRaw is the inverse of ParseExpr.
func ExprToRaw(expr Expr) any {
	switch e := expr.(type) {
	case nil:
		return nil
	case Literal:
		return e.Value
	case *Literal:
		return e.Value
	case Param:
		return map[string]any{"type": refTypeParameter, "name": e.Name}
	case *Param:
		return map[string]any{"type": refTypeParameter, "name": e.Name}
	case Unary:
		return map[string]any{"operator": string(e.Op), "left": ExprToRaw(e.Operand)}
	case *Unary:
		return map[string]any{"operator": string(e.Op), "left": ExprToRaw(e.Operand)}
	case Binary:
		return binaryToRaw(e)
	case *Binary:
		return binaryToRaw(*e)
	}
	return nil
}

func binaryToRaw(e Binary) map[string]any {
	out := map[string]any{"operator": string(e.Op)}
	if e.Left != nil {
		out["left"] = ExprToRaw(e.Left)
	}
	if e.Right != nil {
		out["right"] = ExprToRaw(e.Right)
	}
	return out
}
