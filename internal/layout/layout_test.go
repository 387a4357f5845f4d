package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/pattern"
)

func items(n int, typ string) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{ID: fmt.Sprintf("c%d", i), Type: typ}
	}
	return out
}

func TestGrid_Bounds(t *testing.T) {
	base := pattern.Position{X: 40, Y: -25}
	for n := 1; n <= 30; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			cols := math.Ceil(math.Sqrt(float64(n)))
			rows := math.Ceil(float64(n) / cols)
			positions := PlaceGrid(items(n, "x"), base, DefaultSpacing)
			require.Len(t, positions, n)
			for _, p := range positions {
				assert.GreaterOrEqual(t, p.X, base.X)
				assert.LessOrEqual(t, p.X, base.X+cols*200)
				assert.GreaterOrEqual(t, p.Y, base.Y)
				assert.LessOrEqual(t, p.Y, base.Y+rows*150)
			}
		})
	}
}

func TestGrid_Positions(t *testing.T) {
	got := PlaceGrid(items(5, "x"), pattern.Position{X: 100, Y: 100}, DefaultSpacing)
	assert.Equal(t, []pattern.Position{
		{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 500, Y: 100},
		{X: 100, Y: 250}, {X: 300, Y: 250},
	}, got)
}

func TestHierarchical_LayersCentered(t *testing.T) {
	in := []Item{
		{ID: "lb", Type: "load-balancer"},
		{ID: "app1", Type: "compute"},
		{ID: "app2", Type: "compute"},
		{ID: "app3", Type: "compute"},
		{ID: "db", Type: "database"},
	}
	got := PlaceHierarchical(in, pattern.Position{}, DefaultSpacing)
	assert.Equal(t, []pattern.Position{
		{X: 200, Y: 0},
		{X: 0, Y: 150}, {X: 200, Y: 150}, {X: 400, Y: 150},
		{X: 200, Y: 300},
	}, got)
}

func TestCircular(t *testing.T) {
	base := pattern.Position{X: 10, Y: 20}
	for _, n := range []int{1, 3, 4, 10} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			radius := math.Max(100, 30*float64(n))
			got := PlaceCircular(items(n, "x"), base, DefaultSpacing)
			require.Len(t, got, n)
			for _, p := range got {
				dist := math.Hypot(p.X-(base.X+radius), p.Y-(base.Y+radius))
				assert.InDelta(t, radius, dist, 1e-9)
			}
		})
	}
}

func TestRegistry_Apply(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{Circular, Grid, Hierarchical}, r.Names())

	positions, info, err := r.Apply(Grid, items(4, "x"), pattern.Position{X: 0, Y: 0}, Spacing{})
	require.NoError(t, err)
	assert.Len(t, positions, 4)
	assert.Equal(t, Info{
		Strategy: Grid,
		Bounds:   Bounds{MinX: 0, MinY: 0, MaxX: 200, MaxY: 150},
		Center:   pattern.Position{X: 100, Y: 75},
		Spacing:  DefaultSpacing,
	}, info)

	_, _, err = r.Apply("spiral", items(1, "x"), pattern.Position{}, Spacing{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRegistry_CustomStrategy(t *testing.T) {
	r := NewRegistry()
	r.Register("stack", StrategyFunc(func(in []Item, base pattern.Position, s Spacing) []pattern.Position {
		out := make([]pattern.Position, len(in))
		for i := range in {
			out[i] = pattern.Position{X: base.X, Y: base.Y + float64(i)*s.Y}
		}
		return out
	}))
	positions, info, err := r.Apply("stack", items(3, "x"), pattern.Position{X: 5}, Spacing{X: 10, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, pattern.Position{X: 5, Y: 20}, positions[2])
	assert.Equal(t, 20.0, info.Bounds.Height())
}

func TestEmpty(t *testing.T) {
	assert.Nil(t, PlaceGrid(nil, pattern.Position{}, DefaultSpacing))
	assert.Equal(t, Bounds{}, BoundsOf(nil))
}
