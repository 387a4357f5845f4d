// Package pipeline wires the pattern engine together: component catalog,
// validator, template engine, pattern registry, layouts and deployer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/canvas-infra/patterns/internal/component"
	"github.com/canvas-infra/patterns/internal/layout"
	"github.com/canvas-infra/patterns/internal/library"
	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/metrics"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/registry"
	"github.com/canvas-infra/patterns/internal/template"
	"github.com/canvas-infra/patterns/internal/terraform"
	"github.com/canvas-infra/patterns/internal/validate"
	"github.com/canvas-infra/patterns/internal/workspace"
)

// Options configures the pipeline.
type Options struct {
	// Components defaults to the built-in catalog.
	Components *component.Registry
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	// Now stamps generated patterns. Defaults to time.Now.
	Now func() time.Time
	// ExportProvider is used when Export is called without a provider.
	ExportProvider string
}

// DefaultOptions returns options for a pipeline over the built-in catalog.
func DefaultOptions() Options {
	return Options{ExportProvider: component.ProviderAWS}
}

// Pipeline is the entry point of the pattern engine.
type Pipeline struct {
	components *component.Registry
	validator  *validate.Validator
	engine     *template.Engine
	patterns   *registry.Registry
	layouts    *layout.Registry
	deployer   *workspace.Deployer

	exportProvider string
	log            *slog.Logger
}

// New builds a pipeline. The registries start empty apart from the
// component catalog; call LoadLibrary to add the built-in patterns and
// templates.
func New(opts Options) *Pipeline {
	if opts.Components == nil {
		opts.Components = component.NewBuiltin()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	v := validate.New(opts.Components)
	layouts := layout.NewRegistry()
	return &Pipeline{
		components: opts.Components,
		validator:  v,
		engine:     template.New(template.Options{Now: opts.Now, Logger: opts.Logger, Metrics: opts.Metrics}),
		patterns:   registry.New(v, registry.Options{Logger: opts.Logger, Metrics: opts.Metrics, Now: opts.Now}),
		layouts:    layouts,
		deployer: workspace.New(workspace.Options{
			Components: opts.Components,
			Validator:  v,
			Layouts:    layouts,
			Logger:     opts.Logger,
			Metrics:    opts.Metrics,
		}),
		exportProvider: opts.ExportProvider,
		log:            opts.Logger,
	}
}

// Components returns the component catalog.
func (p *Pipeline) Components() *component.Registry { return p.components }

// Patterns returns the pattern registry.
func (p *Pipeline) Patterns() *registry.Registry { return p.patterns }

// Templates returns the template engine.
func (p *Pipeline) Templates() *template.Engine { return p.engine }

// Layouts returns the layout strategy registry.
func (p *Pipeline) Layouts() *layout.Registry { return p.layouts }

// LoadLibrary registers the built-in patterns and templates.
func (p *Pipeline) LoadLibrary() error {
	return p.load(library.Bundle{Patterns: library.Patterns(), Templates: library.Templates()}, "builtin")
}

// LoadPaths registers every pattern and template found in the given
// directories.
func (p *Pipeline) LoadPaths(dirs ...string) error {
	for _, dir := range dirs {
		b, err := library.LoadDir(dir)
		if err != nil {
			return err
		}
		if err := p.load(b, dir); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) load(b library.Bundle, source string) error {
	var errs []error
	for _, t := range b.Templates {
		if err := p.engine.RegisterTemplate(t); err != nil {
			errs = append(errs, fmt.Errorf("template %s: %w", t.ID, err))
		}
	}
	for _, pat := range b.Patterns {
		if _, err := p.patterns.Register(pat); err != nil {
			errs = append(errs, fmt.Errorf("pattern %s: %w", pat.ID, err))
		}
	}
	p.log.Info("library loaded", "source", source,
		"patterns", len(b.Patterns), "templates", len(b.Templates), "failed", len(errs))
	return errors.Join(errs...)
}

// ValidatePattern checks p against the catalog.
func (p *Pipeline) ValidatePattern(pat *pattern.Pattern) validate.Result {
	return p.validator.Validate(pat)
}

// GeneratePattern expands a registered template.
func (p *Pipeline) GeneratePattern(templateID string, ctx *pattern.Context) template.Result {
	return p.engine.Generate(templateID, ctx)
}

// SearchPatterns searches the pattern registry.
func (p *Pipeline) SearchPatterns(f registry.Filters) []registry.SearchResult {
	return p.patterns.Search(f)
}

// DeployPattern deploys pat into state. A successful deployment of a
// registered pattern counts as a download.
func (p *Pipeline) DeployPattern(pat *pattern.Pattern, state *workspace.State, opts workspace.DeployOptions) workspace.DeploymentResult {
	res := p.deployer.Deploy(pat, state, opts)
	if res.Success {
		p.recordDownload(res.PatternID)
	}
	return res
}

// DeployRegistered deploys the registered pattern with the given id.
func (p *Pipeline) DeployRegistered(id string, state *workspace.State, opts workspace.DeployOptions) (workspace.DeploymentResult, error) {
	pat, err := p.patterns.Get(id)
	if err != nil {
		return workspace.DeploymentResult{}, err
	}
	return p.DeployPattern(pat, state, opts), nil
}

// DeployBatch deploys several patterns into state.
func (p *Pipeline) DeployBatch(ctx context.Context, patterns []*pattern.Pattern, state *workspace.State, opts workspace.BatchOptions) workspace.BatchResult {
	res := p.deployer.DeployBatch(ctx, patterns, state, opts)
	for _, r := range res.Results {
		if r.Success {
			p.recordDownload(r.PatternID)
		}
	}
	return res
}

// GenerateDeployResult is the outcome of GenerateAndDeploy. Validation and
// Deployment are nil when an earlier step failed.
type GenerateDeployResult struct {
	Success    bool                        `json:"success"`
	Generation template.Result             `json:"generation"`
	Validation *validate.Result            `json:"validation,omitempty"`
	Deployment *workspace.DeploymentResult `json:"deployment,omitempty"`
}

// GenerateAndDeploy expands a template, validates the result and deploys it.
// A successful deployment counts as a download of the template when a
// pattern with the template id is registered.
func (p *Pipeline) GenerateAndDeploy(templateID string, ctx *pattern.Context, state *workspace.State, opts workspace.DeployOptions) GenerateDeployResult {
	out := GenerateDeployResult{Generation: p.engine.Generate(templateID, ctx)}
	if !out.Generation.Success {
		return out
	}
	vr := p.validator.Validate(out.Generation.Pattern)
	out.Validation = &vr
	if !vr.Valid {
		return out
	}
	opts.Validate = false
	dr := p.deployer.Deploy(out.Generation.Pattern, state, opts)
	out.Deployment = &dr
	out.Success = dr.Success
	if dr.Success {
		p.recordDownload(templateID)
	}
	return out
}

// Export renders pat as skeleton Terraform files. An empty provider falls
// back to the pattern's first provider, then to the configured default.
func (p *Pipeline) Export(pat *pattern.Pattern, provider string) (map[string][]byte, error) {
	if provider == "" && pat != nil && len(pat.Providers) == 0 {
		provider = p.exportProvider
	}
	return terraform.Export(pat, provider, p.components)
}

func (p *Pipeline) recordDownload(id string) {
	if err := p.patterns.RecordDownload(id); err != nil && !errors.Is(err, registry.ErrPatternNotFound) {
		p.log.Warn("record download failed", "pattern_id", id, "error", err)
	}
}
