package resolve

import (
	"math"
	"reflect"
	"strings"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// Operator names a conditional-expression operator.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpGreater  Operator = "greater"
	OpLess     Operator = "less"
	OpContains Operator = "contains"
	OpAnd      Operator = "and"
	OpOr       Operator = "or"
	OpNot      Operator = "not"
)

// Expr is a node of a conditional expression tree.
type Expr interface {
	isExpr()
}

// Literal is a constant operand.
type Literal struct {
	Value any
}

// Param is an operand read from the context parameters.
type Param struct {
	Name string
}

// Binary applies Op to two operands. A nil operand is a missing operand.
type Binary struct {
	Op    Operator
	Left  Expr
	Right Expr
}

// Unary applies Op (only "not") to one operand.
type Unary struct {
	Op      Operator
	Operand Expr
}

func (Literal) isExpr() {}
func (Param) isExpr()   {}
func (Binary) isExpr()  {}
func (Unary) isExpr()   {}

// Eq is shorthand for an equals comparison between a parameter and a literal.
func Eq(param string, value any) Expr {
	return Binary{Op: OpEquals, Left: Param{Name: param}, Right: Literal{Value: value}}
}

// IsTrue is shorthand for a parameter truthiness check.
func IsTrue(param string) Expr {
	return Binary{Op: OpEquals, Left: Param{Name: param}, Right: Literal{Value: true}}
}

// Evaluate evaluates expr against ctx. A nil expression is false. Evaluation
// never fails: missing parameters are nil operands.
func Evaluate(expr Expr, ctx *pattern.Context) bool {
	return Truthy(operand(expr, ctx))
}

// operand returns the value of an expression node. Comparison nodes yield bool.
func operand(expr Expr, ctx *pattern.Context) any {
	switch e := expr.(type) {
	case nil:
		return nil
	case Literal:
		return e.Value
	case *Literal:
		return e.Value
	case Param:
		v, _ := ctx.Param(e.Name)
		return v
	case *Param:
		v, _ := ctx.Param(e.Name)
		return v
	case Unary:
		return evalUnary(e, ctx)
	case *Unary:
		return evalUnary(*e, ctx)
	case Binary:
		return evalBinary(e, ctx)
	case *Binary:
		return evalBinary(*e, ctx)
	}
	return nil
}

func evalUnary(e Unary, ctx *pattern.Context) bool {
	if e.Op != OpNot {
		return false
	}
	return !Truthy(operand(e.Operand, ctx))
}

func evalBinary(e Binary, ctx *pattern.Context) bool {
	left := operand(e.Left, ctx)
	// not only looks at the left operand when written in binary form
	if e.Op == OpNot {
		return !Truthy(left)
	}
	right := operand(e.Right, ctx)

	switch e.Op {
	case OpEquals:
		return valuesEqual(left, right)
	case OpGreater:
		l, lok := pattern.ToFloat64(left)
		r, rok := pattern.ToFloat64(right)
		return lok && rok && l > r
	case OpLess:
		l, lok := pattern.ToFloat64(left)
		r, rok := pattern.ToFloat64(right)
		return lok && rok && l < r
	case OpContains:
		return contains(left, right)
	case OpAnd:
		// a missing operand makes the whole expression false
		if left == nil || right == nil {
			return false
		}
		return Truthy(left) && Truthy(right)
	case OpOr:
		if left == nil || right == nil {
			return false
		}
		return Truthy(left) || Truthy(right)
	}
	return false
}

// Truthy reports whether v counts as true: nil, false, 0, NaN and "" do not.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if n, ok := pattern.ToFloat64(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

func valuesEqual(a, b any) bool {
	an, aok := pattern.ToFloat64(a)
	bn, bok := pattern.ToFloat64(b)
	if aok && bok {
		return an == bn
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if valuesEqual(item, needle) {
				return true
			}
		}
		return false
	case []string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		for _, item := range h {
			if item == s {
				return true
			}
		}
		return false
	case nil:
		return false
	}
	if needle == nil {
		return false
	}
	return strings.Contains(pattern.Stringify(haystack), pattern.Stringify(needle))
}
