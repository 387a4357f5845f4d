// Package template expands parameterized pattern templates into concrete
// infrastructure patterns.
package template

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/metrics"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/resolve"
)

// ErrTemplateNotFound is returned when a template id is not registered.
var ErrTemplateNotFound = errors.New("template not found")

// Result is the outcome of Generate. Pattern is nil unless Success is true.
type Result struct {
	Success  bool             `json:"success"`
	Pattern  *pattern.Pattern `json:"pattern,omitempty"`
	Errors   []string         `json:"errors"`
	Warnings []string         `json:"warnings"`
}

// Options configures the engine.
type Options struct {
	// Now stamps generated pattern ids. Defaults to time.Now.
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Engine holds registered templates and expands them.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]Template
	now       func() time.Time
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// New returns an engine with no templates.
func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Engine{
		templates: make(map[string]Template),
		now:       opts.Now,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
}

// RegisterTemplate stores a copy of t by id, replacing any template with the
// same id.
func (e *Engine) RegisterTemplate(t Template) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("template id is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t.Clone()
	return nil
}

// GetTemplate returns a copy of the template with the given id.
func (e *Engine) GetTemplate(id string) (Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return t.Clone(), nil
}

// ListTemplates returns a summary of every template sorted by id.
func (e *Engine) ListTemplates() []Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Summary, 0, len(e.templates))
	for _, t := range e.templates {
		out = append(out, Summary{
			ID: t.ID, Name: t.Name, Description: t.Description, Category: t.Category,
			Parameters: len(t.Parameters), Components: len(t.ComponentTemplates),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveTemplate deletes a template and reports whether it existed.
func (e *Engine) RemoveTemplate(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.templates[id]
	delete(e.templates, id)
	return ok
}

// Generate expands the template into a new pattern. It never panics and
// never returns a partially built pattern.
func (e *Engine) Generate(templateID string, ctx *pattern.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Errors: []string{fmt.Sprintf("template generation failed: %v", r)}, Warnings: []string{}}
		}
		e.metrics.IncGeneration(res.Success)
		if res.Success {
			e.log.Info("pattern generated", "template_id", templateID,
				"pattern_id", res.Pattern.ID, "components", len(res.Pattern.Components))
		} else {
			e.log.Warn("pattern generation failed", "template_id", templateID, "errors", res.Errors)
		}
	}()

	tpl, err := e.GetTemplate(templateID)
	if err != nil {
		return Result{Errors: []string{err.Error()}, Warnings: []string{}}
	}
	if ctx == nil {
		ctx = &pattern.Context{}
	}

	effective, errs, warns := checkParameters(tpl.Parameters, ctx.Parameters)
	if warns == nil {
		warns = []string{}
	}
	if len(errs) > 0 {
		return Result{Errors: errs, Warnings: warns}
	}
	rctx := *ctx
	rctx.Parameters = effective

	x := expansion{ctx: &rctx}
	for i := range tpl.ComponentTemplates {
		ct := &tpl.ComponentTemplates[i]
		if !ct.Conditional.Holds(x.ctx) {
			continue
		}
		x.components = append(x.components, x.component(ct))
	}
	for i := range tpl.RelationshipTemplates {
		rt := &tpl.RelationshipTemplates[i]
		if !rt.Conditional.Holds(x.ctx) {
			continue
		}
		x.addRelationship(rt)
	}
	for i := range tpl.ConditionalLogic {
		rule := &tpl.ConditionalLogic[i]
		if !rule.Condition.Holds(x.ctx) {
			continue
		}
		for _, a := range rule.Actions {
			if msg := x.apply(a); msg != "" {
				warns = append(warns, fmt.Sprintf("rule %s: %s", rule.ID, msg))
			}
		}
	}

	return Result{Success: true, Pattern: e.assemble(&tpl, &rctx, &x), Errors: []string{}, Warnings: warns}
}

func (e *Engine) assemble(tpl *Template, ctx *pattern.Context, x *expansion) *pattern.Pattern {
	now := e.now()
	id := tpl.ID + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	if ctx.ProjectName != "" {
		id = ctx.ProjectName + "-" + id
	}

	providers := []string{}
	if ctx.Provider != "" {
		providers = append(providers, ctx.Provider)
	}
	params := make([]pattern.PatternParameter, len(tpl.Parameters))
	for i, p := range tpl.Parameters {
		params[i] = p.Clone()
	}
	tags := make(map[string]any, len(ctx.Tags))
	for k, v := range ctx.Tags {
		tags[k] = v
	}

	components := x.components
	if components == nil {
		components = []pattern.ComponentReference{}
	}
	relationships := x.relationships
	if relationships == nil {
		relationships = []pattern.ComponentRelationship{}
	}

	return &pattern.Pattern{
		ID:            id,
		Name:          tpl.Name,
		Description:   tpl.Description,
		Version:       tpl.Version,
		Category:      tpl.Category,
		Complexity:    tpl.Complexity,
		Status:        pattern.StatusPublished,
		Providers:     providers,
		Tags:          append([]string(nil), tpl.Tags...),
		Author:        tpl.Author,
		Components:    components,
		Relationships: relationships,
		Parameters:    params,
		Metadata: pattern.Properties{
			"templateId":  tpl.ID,
			"environment": ctx.Environment,
			"region":      ctx.Region,
			"projectName": ctx.ProjectName,
			"tags":        tags,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// expansion accumulates the components and relationships of one Generate call.
type expansion struct {
	ctx           *pattern.Context
	components    []pattern.ComponentReference
	relationships []pattern.ComponentRelationship
}

func (x *expansion) component(ct *ComponentTemplate) pattern.ComponentReference {
	c := pattern.ComponentReference{
		ComponentID:   resolve.String(ct.ComponentID, x.ctx),
		InstanceID:    resolve.String(ct.InstanceID, x.ctx),
		DisplayName:   resolve.String(ct.DisplayName, x.ctx),
		Required:      ct.Required,
		Configuration: resolve.Properties(ct.Configuration, x.ctx),
		Metadata:      resolve.Properties(ct.Metadata, x.ctx),
	}
	c.Position.X, _ = resolve.Number(ct.Position.X, x.ctx)
	c.Position.Y, _ = resolve.Number(ct.Position.Y, x.ctx)
	if c.DisplayName == "" {
		c.DisplayName = c.InstanceID
	}
	for _, d := range ct.Dependencies {
		switch v := resolve.Value(d, x.ctx).(type) {
		case string:
			if v != "" {
				c.Dependencies = append(c.Dependencies, v)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					c.Dependencies = append(c.Dependencies, s)
				}
			}
		case []string:
			c.Dependencies = append(c.Dependencies, v...)
		}
	}
	return c
}

func (x *expansion) has(instanceID string) bool {
	for i := range x.components {
		if x.components[i].InstanceID == instanceID {
			return true
		}
	}
	return false
}

// addRelationship resolves rt and keeps it only when both endpoints exist.
func (x *expansion) addRelationship(rt *RelationshipTemplate) bool {
	r := pattern.ComponentRelationship{
		ID:             resolve.String(rt.ID, x.ctx),
		FromInstanceID: resolve.String(rt.FromInstanceID, x.ctx),
		ToInstanceID:   resolve.String(rt.ToInstanceID, x.ctx),
		Type:           rt.Type,
		Metadata:       resolve.Properties(rt.Metadata, x.ctx),
	}
	if !x.has(r.FromInstanceID) || !x.has(r.ToInstanceID) {
		return false
	}
	if r.ID == "" {
		r.ID = r.FromInstanceID + "-" + r.ToInstanceID
	}
	if r.Type == "" {
		r.Type = pattern.RelationshipDependency
	}
	r.Configuration = pattern.ComponentRelationship{Configuration: rt.Configuration}.Clone().Configuration
	r.Configuration.Properties = resolve.Properties(rt.Configuration.Properties, x.ctx)
	x.relationships = append(x.relationships, r)
	return true
}

// apply runs one rule action and returns a warning message when the action
// could not be applied.
func (x *expansion) apply(a TemplateAction) string {
	target := resolve.Interpolate(a.Target, x.ctx.Parameters)
	switch a.Type {
	case ActionAddComponent:
		if a.Component == nil {
			return "add_component without component"
		}
		if !a.Component.Conditional.Holds(x.ctx) {
			return ""
		}
		c := x.component(a.Component)
		if x.has(c.InstanceID) {
			return "component " + c.InstanceID + " already exists"
		}
		x.components = append(x.components, c)
	case ActionRemoveComponent:
		x.remove(target)
	case ActionAddRelationship:
		if a.Relationship == nil {
			return "add_relationship without relationship"
		}
		if a.Relationship.Conditional.Holds(x.ctx) {
			x.addRelationship(a.Relationship)
		}
	case ActionModifyConfiguration:
		for i := range x.components {
			c := &x.components[i]
			if c.InstanceID != target {
				continue
			}
			if c.Configuration == nil {
				c.Configuration = pattern.Properties{}
			}
			for k, v := range resolve.Properties(a.Configuration, x.ctx) {
				c.Configuration[k] = v
			}
			return ""
		}
		return "component " + target + " not found"
	default:
		return "unknown action " + string(a.Type)
	}
	return ""
}

// remove drops a component together with every relationship touching it and
// every dependency on it.
func (x *expansion) remove(instanceID string) {
	components := x.components[:0]
	for _, c := range x.components {
		if c.InstanceID == instanceID {
			continue
		}
		if len(c.Dependencies) > 0 {
			deps := c.Dependencies[:0]
			for _, d := range c.Dependencies {
				if d != instanceID {
					deps = append(deps, d)
				}
			}
			c.Dependencies = deps
		}
		components = append(components, c)
	}
	x.components = components

	relationships := x.relationships[:0]
	for _, r := range x.relationships {
		if r.FromInstanceID != instanceID && r.ToInstanceID != instanceID {
			relationships = append(relationships, r)
		}
	}
	x.relationships = relationships
}
