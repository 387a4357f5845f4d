// Package layout assigns canvas positions to a set of components.
package layout

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// ErrUnknownStrategy is returned when no strategy is registered under a name.
var ErrUnknownStrategy = errors.New("unknown layout strategy")

// Strategy names.
const (
	Grid         = "grid"
	Hierarchical = "hierarchical"
	Circular     = "circular"
)

// Spacing is the distance between neighbouring components.
type Spacing struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultSpacing is used when a caller does not set one.
var DefaultSpacing = Spacing{X: 200, Y: 150}

// Item is a component to place. Type groups items for hierarchical layouts.
type Item struct {
	ID   string
	Type string
}

// Bounds is the axis-aligned box around placed components.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Info describes a finished layout so a view can fit it.
type Info struct {
	Strategy string           `json:"strategy"`
	Bounds   Bounds           `json:"bounds"`
	Center   pattern.Position `json:"center"`
	Spacing  Spacing          `json:"spacing"`
}

// Strategy places items relative to base. The result has one position per
// item, in item order.
type Strategy interface {
	Place(items []Item, base pattern.Position, spacing Spacing) []pattern.Position
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(items []Item, base pattern.Position, spacing Spacing) []pattern.Position

// Place calls f.
func (f StrategyFunc) Place(items []Item, base pattern.Position, spacing Spacing) []pattern.Position {
	return f(items, base, spacing)
}

// Registry holds named strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry returns a registry with the grid, hierarchical and circular
// strategies.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register(Grid, StrategyFunc(PlaceGrid))
	r.Register(Hierarchical, StrategyFunc(PlaceHierarchical))
	r.Register(Circular, StrategyFunc(PlaceCircular))
	return r
}

// Register adds or replaces a strategy.
func (r *Registry) Register(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// Get returns the named strategy.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Names returns the registered strategy names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Apply places items with the named strategy and describes the result. A
// zero spacing means DefaultSpacing.
func (r *Registry) Apply(name string, items []Item, base pattern.Position, spacing Spacing) ([]pattern.Position, Info, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, Info{}, err
	}
	if spacing.X <= 0 || spacing.Y <= 0 {
		spacing = DefaultSpacing
	}
	positions := s.Place(items, base, spacing)
	if len(positions) != len(items) {
		return nil, Info{}, fmt.Errorf("layout %s placed %d of %d components", name, len(positions), len(items))
	}
	b := BoundsOf(positions)
	return positions, Info{
		Strategy: name,
		Bounds:   b,
		Center:   pattern.Position{X: b.MinX + b.Width()/2, Y: b.MinY + b.Height()/2},
		Spacing:  spacing,
	}, nil
}

// BoundsOf returns the box around positions. Empty input gives a zero box.
func BoundsOf(positions []pattern.Position) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range positions {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}
