package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/component"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/result"
)

func webPattern() *pattern.Pattern {
	return &pattern.Pattern{
		ID: "web", Name: "Web", Description: "two tier",
		Providers: []string{component.ProviderAWS},
		Components: []pattern.ComponentReference{
			{ComponentID: "load-balancer", InstanceID: "lb"},
			{ComponentID: "compute-instance", InstanceID: "app", Dependencies: []string{"db"}},
			{ComponentID: "relational-database", InstanceID: "db"},
		},
		Relationships: []pattern.ComponentRelationship{
			{ID: "lb-app", FromInstanceID: "lb", ToInstanceID: "app", Type: pattern.RelationshipLoadBalance},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	res := New(component.NewBuiltin()).Validate(webPattern())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.NotNil(t, res.Suggestions)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *pattern.Pattern)
		codes  []string
	}{
		{
			name:   "required fields",
			mutate: func(p *pattern.Pattern) { p.ID, p.Name, p.Description = "", "", " " },
			codes:  []string{result.CodeRequiredField, result.CodeRequiredField, result.CodeRequiredField},
		},
		{
			name: "duplicate instance",
			mutate: func(p *pattern.Pattern) {
				p.Components = append(p.Components, pattern.ComponentReference{ComponentID: "cache", InstanceID: "db"})
			},
			codes: []string{result.CodeDuplicateInstance},
		},
		{
			name:   "unknown component",
			mutate: func(p *pattern.Pattern) { p.Components[0].ComponentID = "mainframe" },
			codes:  []string{result.CodeInvalidComponent},
		},
		{
			name:   "dangling relationship",
			mutate: func(p *pattern.Pattern) { p.Relationships[0].ToInstanceID = "ghost" },
			codes:  []string{result.CodeInvalidRelationship},
		},
		{
			name:   "missing dependency",
			mutate: func(p *pattern.Pattern) { p.Components[1].Dependencies = []string{"ghost"} },
			codes:  []string{result.CodeMissingDependency},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := webPattern()
			tt.mutate(p)
			res := New(component.NewBuiltin()).Validate(p)
			assert.False(t, res.Valid)
			assert.Equal(t, tt.codes, result.Codes(res.Errors))
		})
	}
}

func TestValidate_SingleCircularDependency(t *testing.T) {
	p := &pattern.Pattern{
		ID: "c", Name: "cycle", Description: "a -> b -> c -> a",
		Components: []pattern.ComponentReference{
			{ComponentID: "generic-service", InstanceID: "A", Dependencies: []string{"B"}},
			{ComponentID: "generic-service", InstanceID: "B", Dependencies: []string{"C"}},
			{ComponentID: "generic-service", InstanceID: "C", Dependencies: []string{"A"}},
		},
	}
	res := New(component.NewBuiltin()).Validate(p)
	require.Equal(t, []string{result.CodeCircularDependency}, result.Codes(res.Errors))
	assert.Equal(t, "C", res.Errors[0].InstanceID)
	assert.Contains(t, res.Errors[0].Message, "A -> B -> C -> A")
}

func TestValidate_SelfDependencyIsCircular(t *testing.T) {
	p := &pattern.Pattern{
		ID: "s", Name: "self", Description: "a depends on a",
		Components: []pattern.ComponentReference{
			{ComponentID: "generic-service", InstanceID: "a", Dependencies: []string{"a"}},
		},
	}
	res := New(component.NewBuiltin()).Validate(p)
	require.Equal(t, []string{result.CodeCircularDependency}, result.Codes(res.Errors))
	assert.Equal(t, "a", res.Errors[0].InstanceID)
	assert.Contains(t, res.Errors[0].Message, "a -> a")
}

func TestValidate_NoFalseCycleOnDeepChain(t *testing.T) {
	p := &pattern.Pattern{ID: "d", Name: "deep", Description: "chain"}
	ids := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	for i, id := range ids {
		c := pattern.ComponentReference{ComponentID: "generic-service", InstanceID: id}
		if i+1 < len(ids) {
			c.Dependencies = []string{ids[i+1]}
		}
		p.Components = append(p.Components, c)
	}
	res := New(component.NewBuiltin()).Validate(p)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidate_Idempotent(t *testing.T) {
	p := webPattern()
	p.Providers = []string{component.ProviderAWS, component.ProviderAzure}
	p.Components = append(p.Components, pattern.ComponentReference{ComponentID: "edge-function", InstanceID: "edge"})
	before := p.Clone()

	v := New(component.NewBuiltin())
	first := v.Validate(p)
	second := v.Validate(p)
	assert.Equal(t, first, second)
	assert.Equal(t, before, p)
}

func TestValidate_ProviderCompatibility(t *testing.T) {
	p := webPattern()
	p.Providers = []string{component.ProviderAzure}
	p.Components = append(p.Components, pattern.ComponentReference{
		ComponentID: "edge-function", InstanceID: "edge", Dependencies: []string{"app"},
	})

	res := New(component.NewBuiltin()).Validate(p)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, result.CodeProviderCompatibility, w.Code)
	assert.Equal(t, "edge", w.InstanceID)
	assert.Contains(t, w.Suggestion, "azure")
	assert.Contains(t, res.Suggestions, w.Suggestion)
}

func TestValidate_AdvisoryWarnings(t *testing.T) {
	p := webPattern()
	p.Components = append(p.Components, pattern.ComponentReference{ComponentID: "dns-zone", InstanceID: "dns"})

	res := New(component.NewBuiltin()).Validate(p)
	assert.True(t, res.Valid)

	var codes []string
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{result.CodeMissingConfiguration, result.CodeIsolatedComponent}, codes)
}

func TestValidate_Nil(t *testing.T) {
	res := New(component.NewBuiltin()).Validate(nil)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 1)
}
