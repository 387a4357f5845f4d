// Package validate checks the structure of concrete infrastructure patterns.
package validate

import (
	"fmt"
	"strings"

	"github.com/canvas-infra/patterns/internal/component"
	"github.com/canvas-infra/patterns/internal/dependency"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/result"
)

// Result is the outcome of validating a pattern.
type Result struct {
	Valid       bool             `json:"valid"`
	Errors      []result.Error   `json:"errors"`
	Warnings    []result.Warning `json:"warnings"`
	Suggestions []string         `json:"suggestions"`
}

// Validator validates patterns against a component catalog.
type Validator struct {
	components component.Lookup
}

// New returns a validator backed by the given catalog.
func New(components component.Lookup) *Validator {
	return &Validator{components: components}
}

// Validate checks required fields and structure of the pattern. It never
// modifies p.
func (v *Validator) Validate(p *pattern.Pattern) Result {
	if p == nil {
		errs := []result.Error{{
			Code: result.CodeRequiredField, Severity: result.SeverityError,
			Message: "pattern is nil",
		}}
		return Result{Errors: errs, Warnings: []result.Warning{}, Suggestions: []string{}}
	}

	var errs []result.Error
	var warns []result.Warning

	errs = append(errs, requiredFields(p)...)

	instances := make(map[string]bool, len(p.Components))
	for i := range p.Components {
		c := &p.Components[i]
		if c.InstanceID == "" {
			errs = append(errs, result.Error{
				Code: result.CodeRequiredField, Severity: result.SeverityError, Field: "instanceId",
				Message:    fmt.Sprintf("component at index %d has empty instanceId", i),
				Suggestion: "Set components[].instanceId",
			})
			continue
		}
		if instances[c.InstanceID] {
			errs = append(errs, result.Error{
				Code: result.CodeDuplicateInstance, Severity: result.SeverityError, InstanceID: c.InstanceID,
				Message:    "duplicate instanceId: " + c.InstanceID,
				Suggestion: "Use unique instance ids for each component",
			})
			continue
		}
		instances[c.InstanceID] = true
	}

	for i := range p.Components {
		c := &p.Components[i]
		if _, ok := v.lookup(c.ComponentID); !ok {
			errs = append(errs, result.Error{
				Code: result.CodeInvalidComponent, Severity: result.SeverityError, InstanceID: c.InstanceID,
				Field:      "componentId",
				Message:    fmt.Sprintf("unknown component %q", c.ComponentID),
				Suggestion: "Use a component id from the component catalog",
			})
		}
	}

	for _, r := range p.Relationships {
		if !instances[r.FromInstanceID] {
			errs = append(errs, result.Error{
				Code: result.CodeInvalidRelationship, Severity: result.SeverityError, InstanceID: r.FromInstanceID,
				Field:      "fromInstanceId",
				Message:    fmt.Sprintf("relationship %s source not found: %s", r.ID, r.FromInstanceID),
				Suggestion: "Reference an existing component instanceId",
			})
		}
		if !instances[r.ToInstanceID] {
			errs = append(errs, result.Error{
				Code: result.CodeInvalidRelationship, Severity: result.SeverityError, InstanceID: r.ToInstanceID,
				Field:      "toInstanceId",
				Message:    fmt.Sprintf("relationship %s target not found: %s", r.ID, r.ToInstanceID),
				Suggestion: "Reference an existing component instanceId",
			})
		}
	}

	for i := range p.Components {
		c := &p.Components[i]
		for _, dep := range c.Dependencies {
			if !instances[dep] {
				errs = append(errs, result.Error{
					Code: result.CodeMissingDependency, Severity: result.SeverityError, InstanceID: c.InstanceID,
					Field:      "dependencies",
					Message:    fmt.Sprintf("%s depends on unknown component %s", c.InstanceID, dep),
					Suggestion: "Add the dependency to the pattern or remove it from dependencies",
				})
			}
		}
	}

	if cycle, found := dependency.FromPattern(p).FindCycle(); found {
		errs = append(errs, result.Error{
			Code: result.CodeCircularDependency, Severity: result.SeverityError, InstanceID: cycle.Node,
			Field:      "dependencies",
			Message:    fmt.Sprintf("circular dependency: %s", strings.Join(cycle.Path, " -> ")),
			Suggestion: fmt.Sprintf("Remove the dependency of %s on %s", cycle.Node, cycle.DependsOn),
		})
	}

	warns = append(warns, v.providerWarnings(p)...)
	warns = append(warns, v.configurationWarnings(p)...)
	warns = append(warns, isolatedWarnings(p)...)

	if errs == nil {
		errs = []result.Error{}
	}
	if warns == nil {
		warns = []result.Warning{}
	}
	return Result{
		Valid:       len(errs) == 0,
		Errors:      errs,
		Warnings:    warns,
		Suggestions: suggestions(warns),
	}
}

func requiredFields(p *pattern.Pattern) []result.Error {
	var errs []result.Error
	for _, f := range []struct{ name, value string }{
		{"id", p.ID}, {"name", p.Name}, {"description", p.Description},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, result.Error{
				Code: result.CodeRequiredField, Severity: result.SeverityError, Field: f.name,
				Message: f.name + " is required", Suggestion: "Set pattern." + f.name,
			})
		}
	}
	return errs
}

func (v *Validator) lookup(id string) (*component.Metadata, bool) {
	if v.components == nil {
		return nil, false
	}
	return v.components.GetComponent(id)
}

func (v *Validator) providerWarnings(p *pattern.Pattern) []result.Warning {
	var warns []result.Warning
	alts, _ := v.components.(component.Alternatives)
	for _, provider := range p.Providers {
		for i := range p.Components {
			c := &p.Components[i]
			meta, ok := v.lookup(c.ComponentID)
			if !ok || meta.SupportsProvider(provider) {
				continue
			}
			w := result.Warning{
				Code: result.CodeProviderCompatibility, Severity: result.SeverityWarning, InstanceID: c.InstanceID,
				Message: fmt.Sprintf("component %s (%s) has no %s mapping", c.InstanceID, c.ComponentID, provider),
			}
			if alts != nil {
				if alt, found := alts.Alternative(c.ComponentID, provider); found {
					w.Suggestion = fmt.Sprintf("Consider %s (%s) for %s", alt.ID, alt.Label(provider), provider)
				}
			}
			if w.Suggestion == "" {
				w.Suggestion = fmt.Sprintf("Remove %s from the pattern providers or replace the component", provider)
			}
			warns = append(warns, w)
		}
	}
	return warns
}

func (v *Validator) configurationWarnings(p *pattern.Pattern) []result.Warning {
	var warns []result.Warning
	for i := range p.Components {
		c := &p.Components[i]
		meta, ok := v.lookup(c.ComponentID)
		if !ok {
			continue
		}
		for _, key := range meta.RequiredConfig {
			if _, set := c.Configuration[key]; set {
				continue
			}
			if _, hasDefault := meta.DefaultConfig[key]; hasDefault {
				continue
			}
			warns = append(warns, result.Warning{
				Code: result.CodeMissingConfiguration, Severity: result.SeverityWarning, InstanceID: c.InstanceID,
				Message:    fmt.Sprintf("%s is missing configuration %s", c.InstanceID, key),
				Suggestion: fmt.Sprintf("Set configuration.%s before deploying", key),
			})
		}
	}
	return warns
}

func isolatedWarnings(p *pattern.Pattern) []result.Warning {
	if len(p.Components) < 2 {
		return nil
	}
	linked := make(map[string]bool)
	for _, r := range p.Relationships {
		linked[r.FromInstanceID] = true
		linked[r.ToInstanceID] = true
	}
	for i := range p.Components {
		c := &p.Components[i]
		for _, dep := range c.Dependencies {
			linked[c.InstanceID] = true
			linked[dep] = true
		}
	}
	var warns []result.Warning
	for i := range p.Components {
		c := &p.Components[i]
		if c.InstanceID == "" || linked[c.InstanceID] {
			continue
		}
		warns = append(warns, result.Warning{
			Code: result.CodeIsolatedComponent, Severity: result.SeverityWarning, InstanceID: c.InstanceID,
			Message:    c.InstanceID + " is not connected to any other component",
			Suggestion: "Add a relationship or dependency for " + c.InstanceID,
		})
	}
	return warns
}

func suggestions(warns []result.Warning) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, w := range warns {
		if w.Suggestion == "" || seen[w.Suggestion] {
			continue
		}
		seen[w.Suggestion] = true
		out = append(out, w.Suggestion)
	}
	return out
}
