package template

import (
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/resolve"
)

// Clone returns a deep copy of the template. Expression trees are shared;
// they are never mutated after construction.
func (t Template) Clone() Template {
	t.Tags = cloneStrings(t.Tags)
	if t.Parameters != nil {
		params := make([]pattern.PatternParameter, len(t.Parameters))
		for i, p := range t.Parameters {
			params[i] = p.Clone()
		}
		t.Parameters = params
	}
	if t.ComponentTemplates != nil {
		cts := make([]ComponentTemplate, len(t.ComponentTemplates))
		for i, ct := range t.ComponentTemplates {
			cts[i] = ct.Clone()
		}
		t.ComponentTemplates = cts
	}
	if t.RelationshipTemplates != nil {
		rts := make([]RelationshipTemplate, len(t.RelationshipTemplates))
		for i, rt := range t.RelationshipTemplates {
			rts[i] = rt.Clone()
		}
		t.RelationshipTemplates = rts
	}
	if t.ConditionalLogic != nil {
		rules := make([]ConditionalRule, len(t.ConditionalLogic))
		for i, r := range t.ConditionalLogic {
			rules[i] = r.Clone()
		}
		t.ConditionalLogic = rules
	}
	return t
}

// Clone returns a deep copy of the component template.
func (ct ComponentTemplate) Clone() ComponentTemplate {
	ct.ComponentID = cloneValue(ct.ComponentID)
	ct.InstanceID = cloneValue(ct.InstanceID)
	ct.DisplayName = cloneValue(ct.DisplayName)
	ct.Position.X = cloneValue(ct.Position.X)
	ct.Position.Y = cloneValue(ct.Position.Y)
	ct.Configuration = cloneMap(ct.Configuration)
	if ct.Dependencies != nil {
		deps := make([]any, len(ct.Dependencies))
		for i, d := range ct.Dependencies {
			deps[i] = cloneValue(d)
		}
		ct.Dependencies = deps
	}
	ct.Metadata = ct.Metadata.Clone()
	ct.Conditional = cloneCondition(ct.Conditional)
	return ct
}

// Clone returns a deep copy of the relationship template.
func (rt RelationshipTemplate) Clone() RelationshipTemplate {
	rt.ID = cloneValue(rt.ID)
	rt.FromInstanceID = cloneValue(rt.FromInstanceID)
	rt.ToInstanceID = cloneValue(rt.ToInstanceID)
	rt.Configuration = pattern.ComponentRelationship{Configuration: rt.Configuration}.Clone().Configuration
	rt.Metadata = rt.Metadata.Clone()
	rt.Conditional = cloneCondition(rt.Conditional)
	return rt
}

// Clone returns a deep copy of the rule.
func (r ConditionalRule) Clone() ConditionalRule {
	if r.Actions != nil {
		actions := make([]TemplateAction, len(r.Actions))
		for i, a := range r.Actions {
			if a.Component != nil {
				c := a.Component.Clone()
				a.Component = &c
			}
			if a.Relationship != nil {
				rel := a.Relationship.Clone()
				a.Relationship = &rel
			}
			a.Configuration = cloneMap(a.Configuration)
			actions[i] = a
		}
		r.Actions = actions
	}
	return r
}

func cloneCondition(c *resolve.Condition) *resolve.Condition {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue extends pattern.CloneValue to parameter references and
// conditional values.
func cloneValue(v any) any {
	switch t := v.(type) {
	case resolve.ParamRef:
		t.Default = cloneValue(t.Default)
		t.TransformArg = cloneValue(t.TransformArg)
		return t
	case resolve.Conditional:
		t.True = cloneValue(t.True)
		t.False = cloneValue(t.False)
		return t
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return pattern.CloneValue(v)
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
