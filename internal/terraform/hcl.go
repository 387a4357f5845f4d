package terraform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// SanitizeName converts an instance id to a Terraform-safe resource name
// (e.g. web-lb -> web_lb, 1st.db -> r_1st_db).
func SanitizeName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "r_" + name
	}
	return name
}

// ResourceBlock creates a resource "type" "name" { } block; body can be filled by the caller.
func ResourceBlock(resourceType, name string) *hclwrite.Block {
	return hclwrite.NewBlock("resource", []string{resourceType, name})
}

// SetAttributeMap sets a map(string) attribute (e.g. tags).
func SetAttributeMap(body *hclwrite.Body, name string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	ctyMap := make(map[string]cty.Value)
	for k, v := range m {
		ctyMap[k] = cty.StringVal(v)
	}
	body.SetAttributeValue(name, cty.MapVal(ctyMap))
}

// SetAttributes writes every convertible entry of props in key order. Keys
// that are not valid identifiers and values with no cty form are skipped
// and returned.
func SetAttributes(body *hclwrite.Body, props map[string]any) (skipped []string) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok := ToCty(props[k])
		if !ok || !hclsyntax.ValidIdentifier(k) {
			skipped = append(skipped, k)
			continue
		}
		body.SetAttributeValue(k, v)
	}
	return skipped
}

// ToCty converts a property value into a cty value. Lists become tuples and
// maps become objects so mixed element types survive.
func ToCty(v any) (cty.Value, bool) {
	switch t := v.(type) {
	case string:
		return cty.StringVal(t), true
	case bool:
		return cty.BoolVal(t), true
	case float64:
		return cty.NumberFloatVal(t), true
	case float32:
		return cty.NumberFloatVal(float64(t)), true
	case int:
		return cty.NumberIntVal(int64(t)), true
	case int32:
		return cty.NumberIntVal(int64(t)), true
	case int64:
		return cty.NumberIntVal(t), true
	case []string:
		if len(t) == 0 {
			return cty.EmptyTupleVal, true
		}
		vals := make([]cty.Value, len(t))
		for i, s := range t {
			vals[i] = cty.StringVal(s)
		}
		return cty.TupleVal(vals), true
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, true
		}
		vals := make([]cty.Value, 0, len(t))
		for _, item := range t {
			cv, ok := ToCty(item)
			if !ok {
				return cty.NilVal, false
			}
			vals = append(vals, cv)
		}
		return cty.TupleVal(vals), true
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return ToCty(m)
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal, true
		}
		attrs := make(map[string]cty.Value, len(t))
		for k, item := range t {
			cv, ok := ToCty(item)
			if !ok {
				return cty.NilVal, false
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), true
	}
	return cty.NilVal, false
}

// BlockToBytes formats a block and returns its bytes (with newline).
func BlockToBytes(block *hclwrite.Block) []byte {
	f := hclwrite.NewEmptyFile()
	f.Body().AppendBlock(block)
	return f.Bytes()
}

// Comment renders a single line comment.
func Comment(format string, args ...any) []byte {
	f := hclwrite.NewEmptyFile()
	f.Body().AppendUnstructuredTokens(hclwrite.Tokens{
		{Type: hclsyntax.TokenComment, Bytes: []byte("# " + fmt.Sprintf(format, args...) + "\n")},
	})
	return f.Bytes()
}

// refTraversal builds hcl.Traversal for a resource address and optional
// attribute (e.g. aws_vpc.main.id).
func refTraversal(addr, attr string) hcl.Traversal {
	parts := strings.Split(addr, ".")
	if attr != "" {
		parts = append(parts, attr)
	}
	t := hcl.Traversal{hcl.TraverseRoot{Name: parts[0]}}
	for _, p := range parts[1:] {
		t = append(t, hcl.TraverseAttr{Name: p})
	}
	return t
}

// varTraversal builds hcl.Traversal for var.name (e.g. var.aws_region).
func varTraversal(name string) hcl.Traversal {
	return refTraversal("var", name)
}

// typeTraversal is a bare type keyword such as string or number.
func typeTraversal(name string) hcl.Traversal {
	return hcl.Traversal{hcl.TraverseRoot{Name: name}}
}
