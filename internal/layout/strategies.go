package layout

import (
	"math"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// PlaceGrid arranges items row by row in ceil(sqrt(n)) columns.
func PlaceGrid(items []Item, base pattern.Position, spacing Spacing) []pattern.Position {
	n := len(items)
	if n == 0 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	out := make([]pattern.Position, n)
	for i := range items {
		out[i] = pattern.Position{
			X: base.X + float64(i%cols)*spacing.X,
			Y: base.Y + float64(i/cols)*spacing.Y,
		}
	}
	return out
}

// PlaceHierarchical puts each component type on its own horizontal layer,
// layers ordered by first appearance. Layers are centered against the
// widest one.
func PlaceHierarchical(items []Item, base pattern.Position, spacing Spacing) []pattern.Position {
	if len(items) == 0 {
		return nil
	}
	var order []string
	layers := make(map[string][]int)
	for i, it := range items {
		if _, seen := layers[it.Type]; !seen {
			order = append(order, it.Type)
		}
		layers[it.Type] = append(layers[it.Type], i)
	}
	widest := 0
	for _, idx := range layers {
		widest = max(widest, len(idx))
	}

	out := make([]pattern.Position, len(items))
	for depth, typ := range order {
		idx := layers[typ]
		offset := float64(widest-len(idx)) * spacing.X / 2
		for j, i := range idx {
			out[i] = pattern.Position{
				X: base.X + offset + float64(j)*spacing.X,
				Y: base.Y + float64(depth)*spacing.Y,
			}
		}
	}
	return out
}

// PlaceCircular spreads items evenly on a circle of radius max(100, 30n)
// whose bounding box starts at base.
func PlaceCircular(items []Item, base pattern.Position, _ Spacing) []pattern.Position {
	n := len(items)
	if n == 0 {
		return nil
	}
	radius := math.Max(100, 30*float64(n))
	cx, cy := base.X+radius, base.Y+radius
	out := make([]pattern.Position, n)
	for i := range items {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[i] = pattern.Position{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}
	}
	return out
}
