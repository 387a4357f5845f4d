package workspace

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/canvas-infra/patterns/internal/component"
	"github.com/canvas-infra/patterns/internal/dependency"
	"github.com/canvas-infra/patterns/internal/layout"
	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/metrics"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/result"
	"github.com/canvas-infra/patterns/internal/validate"
)

// positionConflictRadius is how close an existing component may be to an
// explicit anchor before a position conflict is reported.
const positionConflictRadius = 100

var overrideToken = regexp.MustCompile(`\$\{\s*([A-Za-z0-9_.\-]+)\s*\}`)

// Options wires the deployer collaborators.
type Options struct {
	Components component.Lookup
	// Validator defaults to one built on Components.
	Validator *validate.Validator
	// Layouts defaults to layout.NewRegistry().
	Layouts *layout.Registry
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Deployer places patterns into workspaces.
type Deployer struct {
	components component.Lookup
	validator  *validate.Validator
	layouts    *layout.Registry
	log        *slog.Logger
	metrics    *metrics.Metrics
}

// New returns a deployer.
func New(opts Options) *Deployer {
	if opts.Validator == nil {
		opts.Validator = validate.New(opts.Components)
	}
	if opts.Layouts == nil {
		opts.Layouts = layout.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Deployer{
		components: opts.Components,
		validator:  opts.Validator,
		layouts:    opts.Layouts,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Deploy runs the deployment stages for p against state and, on success,
// appends the placed components and connections to state. On failure state
// is left untouched.
func (d *Deployer) Deploy(p *pattern.Pattern, state *State, opts DeployOptions) DeploymentResult {
	res, cs := d.plan(p, state, opts)
	if res.Success {
		state.apply(cs.components, cs.connections)
	}
	return res
}

// changeSet is what a successful plan adds to the workspace.
type changeSet struct {
	components  []Component
	connections []Connection
}

// plan runs every stage without touching state.
func (d *Deployer) plan(p *pattern.Pattern, state *State, opts DeployOptions) (res DeploymentResult, cs changeSet) {
	started := time.Now()
	res = DeploymentResult{
		ID:                 uuid.NewString(),
		Stage:              StagePreparing,
		DeployedComponents: []Component{},
		Connections:        []Connection{},
		Errors:             []string{},
		Warnings:           []string{},
	}
	defer func() {
		d.metrics.ObserveDeployment(res.Success, len(res.DeployedComponents), time.Since(started))
		for _, c := range res.Conflicts {
			d.metrics.IncConflict(c.Type)
		}
		attrs := []any{"deployment_id", res.ID, "pattern_id", res.PatternID, "stage", res.Stage,
			"components", len(res.DeployedComponents)}
		if res.Success {
			d.log.Info("pattern deployed", attrs...)
		} else {
			d.log.Warn("pattern deployment failed", append(attrs, "errors", res.Errors)...)
		}
	}()
	fail := func(stage Stage, errs ...string) (DeploymentResult, changeSet) {
		res.Stage = StageFailed
		res.Errors = append(res.Errors, errs...)
		res.Success = false
		res.DeployedComponents = []Component{}
		res.Connections = []Connection{}
		res.Layout = nil
		res.Order = nil
		res.Warnings = append(res.Warnings, "deployment stopped at stage "+string(stage))
		return res, changeSet{}
	}

	if p == nil {
		return fail(StagePreparing, "pattern is nil")
	}
	res.PatternID = p.ID
	if state == nil {
		return fail(StagePreparing, "workspace state is nil")
	}
	if opts.Naming == "" {
		opts.Naming = NamingPreserve
	}

	if opts.Validate {
		res.Stage = StageValidating
		vr := d.validator.Validate(p)
		for _, w := range vr.Warnings {
			res.Warnings = append(res.Warnings, w.Message)
		}
		if !vr.Valid {
			return fail(StageValidating, result.Messages(vr.Errors)...)
		}
	}

	order, tiers := deploymentOrder(p, &res)

	res.Stage = StageConflictDetection
	names, conflicts := proposeNames(p, order, state, opts)
	if opts.CheckConflicts {
		if opts.Position != nil && !opts.AutoLayout {
			conflicts = append(conflicts, positionConflicts(*opts.Position, state)...)
		}
		res.Conflicts = conflicts
		var blocking []string
		for _, c := range conflicts {
			if c.Severity == result.SeverityError {
				blocking = append(blocking, c.Message)
			} else {
				res.Warnings = append(res.Warnings, c.Message)
			}
		}
		if len(blocking) > 0 {
			return fail(StageConflictDetection, blocking...)
		}
	} else {
		for _, c := range conflicts {
			if c.Type == ConflictNaming {
				res.Warnings = append(res.Warnings, c.Message+"; "+c.Resolution)
			}
		}
	}

	res.Stage = StageParameterOverrides
	configs := make(map[string]pattern.Properties, len(order))
	for _, c := range order {
		cfg := c.Configuration.Clone()
		if len(opts.Overrides) > 0 {
			cfg = substitute(cfg, opts.Overrides).(pattern.Properties)
		}
		configs[c.InstanceID] = cfg
	}

	res.Stage = StageComponentConversion
	components := make([]Component, 0, len(order))
	items := make([]layout.Item, 0, len(order))
	for _, c := range order {
		wc := d.convert(p, c, names[c.InstanceID], configs[c.InstanceID])
		components = append(components, wc)
		items = append(items, layout.Item{ID: wc.ID, Type: wc.Type})
	}

	res.Stage = StageLayout
	strategy := opts.Layout
	if strategy == "" {
		strategy = layout.Grid
		if opts.AutoLayout {
			strategy = layout.Hierarchical
		}
	}
	base := defaultBase(state)
	if opts.Position != nil {
		base = *opts.Position
	}
	var spacing layout.Spacing
	if opts.Spacing != nil {
		spacing = *opts.Spacing
	}
	positions, info, err := d.layouts.Apply(strategy, items, base, spacing)
	if err != nil {
		return fail(StageLayout, err.Error())
	}
	for i := range components {
		components[i].Position = positions[i]
	}

	res.Stage = StageConnectionValidation
	connections := make([]Connection, 0, len(p.Relationships))
	var connErrs []string
	for _, r := range p.Relationships {
		from, okFrom := names[r.FromInstanceID]
		to, okTo := names[r.ToInstanceID]
		if !okFrom || !okTo {
			msg := fmt.Sprintf("Connection %s references a component that was not deployed (%s -> %s)",
				r.ID, r.FromInstanceID, r.ToInstanceID)
			if opts.ValidateConnections {
				connErrs = append(connErrs, msg)
				res.Conflicts = append(res.Conflicts, Conflict{
					Type: ConflictConnection, Severity: result.SeverityError, InstanceID: r.FromInstanceID, Message: msg,
				})
			} else {
				res.Warnings = append(res.Warnings, msg)
			}
			continue
		}
		id := r.ID
		if id == "" {
			id = r.FromInstanceID + "-" + r.ToInstanceID
		}
		connections = append(connections, Connection{
			ID: id, From: from, To: to, Type: r.Type, Bidirectional: r.Configuration.Bidirectional,
		})
	}
	if len(connErrs) > 0 {
		return fail(StageConnectionValidation, connErrs...)
	}

	res.Stage = StageComplete
	res.Success = true
	res.Layout = &info
	res.Order = make([][]string, len(tiers))
	for i, tier := range tiers {
		for _, instanceID := range tier {
			res.Order[i] = append(res.Order[i], names[instanceID])
		}
	}
	preview := &State{}
	preview.apply(components, connections)
	res.DeployedComponents = preview.Components
	res.Connections = connections
	return res, changeSet{components: components, connections: connections}
}

// deploymentOrder sorts the components so dependencies come first. With a
// cyclic graph (possible when validation is skipped) declaration order is kept.
func deploymentOrder(p *pattern.Pattern, res *DeploymentResult) ([]*pattern.ComponentReference, [][]string) {
	byID := make(map[string]*pattern.ComponentReference, len(p.Components))
	for i := range p.Components {
		c := &p.Components[i]
		if _, dup := byID[c.InstanceID]; !dup {
			byID[c.InstanceID] = c
		}
	}
	ordered, tiers, err := dependency.FromPattern(p).Resolve()
	if err != nil {
		res.Warnings = append(res.Warnings, "dependency order unavailable: "+err.Error())
		ordered = nil
		for i := range p.Components {
			ordered = append(ordered, p.Components[i].InstanceID)
		}
		tiers = [][]string{ordered}
	}
	out := make([]*pattern.ComponentReference, 0, len(ordered))
	for _, id := range ordered {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, tiers
}

// proposeNames assigns a workspace id to every component and reports naming
// conflicts. Conflicts are errors when PreserveExisting is set and conflicts
// are checked; otherwise the colliding id is incremented and the conflict is
// a warning.
func proposeNames(p *pattern.Pattern, order []*pattern.ComponentReference, state *State, opts DeployOptions) (map[string]string, []Conflict) {
	taken := make(map[string]bool, len(state.Components)+len(order))
	for _, c := range state.Components {
		taken[c.ID] = true
	}
	blocking := opts.PreserveExisting && opts.CheckConflicts
	names := make(map[string]string, len(order))
	var conflicts []Conflict
	for _, c := range order {
		base := baseName(c)
		var name string
		switch opts.Naming {
		case NamingIncrement:
			name = nextFree(base, taken)
		case NamingPrefix:
			prefix := opts.Prefix
			if prefix == "" {
				prefix = p.ID
			}
			name = prefix + "-" + base
		default:
			name = base
		}
		if taken[name] {
			conflict := Conflict{
				Type: ConflictNaming, InstanceID: c.InstanceID, ExistingID: name,
				Message: fmt.Sprintf("Naming conflict: component '%s' already exists in workspace", name),
			}
			if blocking {
				conflict.Severity = result.SeverityError
				conflict.Resolution = "rename the existing component or choose another naming strategy"
			} else {
				name = nextFree(name, taken)
				conflict.Severity = result.SeverityWarning
				conflict.Resolution = "renamed to " + name
			}
			conflicts = append(conflicts, conflict)
		}
		taken[name] = true
		names[c.InstanceID] = name
	}
	return names, conflicts
}

func baseName(c *pattern.ComponentReference) string {
	if c.InstanceID != "" {
		return c.InstanceID
	}
	fields := strings.Fields(strings.ToLower(c.DisplayName))
	if len(fields) == 0 {
		return c.ComponentID
	}
	return strings.Join(fields, "-")
}

func nextFree(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		name := base + "-" + strconv.Itoa(i)
		if !taken[name] {
			return name
		}
	}
}

func positionConflicts(anchor pattern.Position, state *State) []Conflict {
	var out []Conflict
	for _, c := range state.Components {
		dist := math.Hypot(c.Position.X-anchor.X, c.Position.Y-anchor.Y)
		if dist >= positionConflictRadius {
			continue
		}
		out = append(out, Conflict{
			Type: ConflictPosition, Severity: result.SeverityWarning, ExistingID: c.ID,
			Message: fmt.Sprintf("Position (%s, %s) overlaps existing component '%s'",
				pattern.Stringify(anchor.X), pattern.Stringify(anchor.Y), c.ID),
			Resolution: "enable auto layout or choose another position",
		})
	}
	return out
}

// defaultBase is right of the existing content, or (100, 100) for an empty
// workspace.
func defaultBase(state *State) pattern.Position {
	if len(state.Components) == 0 {
		return pattern.Position{X: 100, Y: 100}
	}
	maxX, minY := math.Inf(-1), math.Inf(1)
	for _, c := range state.Components {
		maxX = math.Max(maxX, c.Position.X)
		minY = math.Min(minY, c.Position.Y)
	}
	return pattern.Position{X: maxX + 250, Y: minY}
}

func (d *Deployer) convert(p *pattern.Pattern, c *pattern.ComponentReference, id string, cfg pattern.Properties) Component {
	label := c.ComponentID
	var defaults pattern.Properties
	if d.components != nil {
		if meta, ok := d.components.GetComponent(c.ComponentID); ok {
			provider := component.ProviderGeneric
			if len(p.Providers) > 0 {
				provider = p.Providers[0]
			}
			label = meta.Label(provider)
			defaults = meta.DefaultConfig
		}
	}
	merged := defaults.Clone()
	if merged == nil {
		merged = pattern.Properties{}
	}
	for k, v := range cfg {
		merged[k] = v
	}

	name := c.DisplayName
	if name == "" {
		name = c.InstanceID
	}
	meta := c.Metadata.Clone()
	if meta == nil {
		meta = pattern.Properties{}
	}
	meta["patternId"] = p.ID
	meta["instanceId"] = c.InstanceID
	meta["label"] = label
	meta["required"] = c.Required
	return Component{
		ID:            id,
		Type:          c.ComponentID,
		Name:          name,
		Configuration: merged,
		Metadata:      meta,
	}
}

// substitute replaces ${name} tokens in every string of v. Unmatched tokens
// are left verbatim.
func substitute(v any, overrides map[string]any) any {
	switch t := v.(type) {
	case string:
		return overrideToken.ReplaceAllStringFunc(t, func(token string) string {
			name := overrideToken.FindStringSubmatch(token)[1]
			val, ok := overrides[name]
			if !ok {
				return token
			}
			return pattern.Stringify(val)
		})
	case pattern.Properties:
		if t == nil {
			return t
		}
		out := make(pattern.Properties, len(t))
		for k, vv := range t {
			out[k] = substitute(vv, overrides)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = substitute(vv, overrides)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = substitute(vv, overrides)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = substitute(s, overrides).(string)
		}
		return out
	}
	return v
}
