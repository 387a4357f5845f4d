package template

import (
	"strings"

	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/resolve"
)

// DeriveOptions controls CreateTemplateFromPattern.
type DeriveOptions struct {
	// ID of the new template. Defaults to "{pattern id}-template".
	ID   string
	Name string
	// Bindings maps "instanceId.configKey" to a declared parameter id. The
	// bound configuration value becomes a reference to that parameter with
	// the original value as default.
	Bindings map[string]string
}

// CreateTemplateFromPattern derives a template whose literal values
// reproduce p. The template is not registered.
func (e *Engine) CreateTemplateFromPattern(p *pattern.Pattern, opts DeriveOptions) *Template {
	if p == nil {
		return nil
	}
	src := p.Clone()
	t := &Template{
		ID:          opts.ID,
		Name:        opts.Name,
		Description: src.Description,
		Version:     src.Version,
		Category:    src.Category,
		Complexity:  src.Complexity,
		Tags:        src.Tags,
		Author:      src.Author,
		Parameters:  src.Parameters,
		CreatedAt:   e.now(),
	}
	t.UpdatedAt = t.CreatedAt
	if t.ID == "" {
		t.ID = src.ID + "-template"
	}
	if t.Name == "" {
		t.Name = src.Name + " Template"
	}

	for _, c := range src.Components {
		ct := ComponentTemplate{
			ComponentID:   c.ComponentID,
			InstanceID:    c.InstanceID,
			DisplayName:   c.DisplayName,
			Position:      PositionTemplate{X: c.Position.X, Y: c.Position.Y},
			Configuration: map[string]any(c.Configuration),
			Required:      c.Required,
			Metadata:      c.Metadata,
		}
		for _, d := range c.Dependencies {
			ct.Dependencies = append(ct.Dependencies, d)
		}
		t.ComponentTemplates = append(t.ComponentTemplates, ct)
	}
	for binding, paramID := range opts.Bindings {
		instanceID, key, ok := strings.Cut(binding, ".")
		if !ok {
			continue
		}
		for i := range t.ComponentTemplates {
			ct := &t.ComponentTemplates[i]
			if ct.InstanceID != instanceID {
				continue
			}
			if ct.Configuration == nil {
				ct.Configuration = map[string]any{}
			}
			ct.Configuration[key] = resolve.RefOr(paramID, ct.Configuration[key])
		}
	}
	for _, r := range src.Relationships {
		t.RelationshipTemplates = append(t.RelationshipTemplates, RelationshipTemplate{
			ID:             r.ID,
			FromInstanceID: r.FromInstanceID,
			ToInstanceID:   r.ToInstanceID,
			Type:           r.Type,
			Configuration:  r.Configuration,
			Metadata:       r.Metadata,
		})
	}
	return t
}
