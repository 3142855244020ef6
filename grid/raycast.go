package grid

import (
	"github.com/kase1111-hash/ascii-city-core/coords"
)

// RayStep is one tile crossed by a raycast, with the planar straight-line
// distance from the ray's origin tile to this tile.
type RayStep struct {
	Tile        *Tile
	SubDistance float64
	// Blocked marks the step at which the ray was stopped by the corner
	// rule: it tried to cross the shared corner of two opaque tiles, and
	// this step's Tile is one of those two corner tiles.
	Blocked bool
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Raycast walks a Bresenham line from "from" to "to" (both assumed to share
// a z-band; the core has no true 3D raycasting, per spec.md's Non-goals),
// applying the corner rule: a diagonal step through the shared corner of
// two opaque tiles is treated as passing through one of them, so callers
// never see light leak diagonally between two solid walls (spec.md §4.1,
// §8 property 7).
func (g *Grid) Raycast(from, to coords.Position) []RayStep {
	x0, y0 := from.X, from.Y
	x1, y1 := to.X, to.Y
	z := from.Z

	dx := absInt32(x1 - x0)
	dy := -absInt32(y1 - y0)
	sx := int32(1)
	if x0 >= x1 {
		sx = -1
	}
	sy := int32(1)
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	var steps []RayStep
	x, y := x0, y0
	prevTile := g.GetTile(coords.Position{X: x, Y: y, Z: z})
	steps = append(steps, RayStep{Tile: prevTile, SubDistance: 0})

	for x != x1 || y != y1 {
		e2 := 2 * err
		movedX, movedY := false, false
		nx, ny := x, y
		if e2 >= dy {
			err += dy
			nx = x + sx
			movedX = true
		}
		if e2 <= dx {
			err += dx
			ny = y + sy
			movedY = true
		}

		if movedX && movedY {
			// Diagonal step: check the two corner tiles shared between the
			// previous cell and the new one.
			cornerA := g.GetTile(coords.Position{X: nx, Y: y, Z: z})
			cornerB := g.GetTile(coords.Position{X: x, Y: ny, Z: z})
			if cornerA.Opacity >= 1 && cornerB.Opacity >= 1 {
				// The ray passes through cornerA and stops there.
				dist := coords.Position{X: x0, Y: y0, Z: z}.EuclideanDistance(cornerA.Position)
				steps = append(steps, RayStep{Tile: cornerA, SubDistance: dist, Blocked: true})
				break
			}
		}

		x, y = nx, ny
		tile := g.GetTile(coords.Position{X: x, Y: y, Z: z})
		dist := coords.Position{X: x0, Y: y0, Z: z}.EuclideanDistance(coords.Position{X: x, Y: y, Z: z})
		steps = append(steps, RayStep{Tile: tile, SubDistance: dist})
	}
	return steps
}
