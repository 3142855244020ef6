// Package vision computes per-observer visibility over the grid by casting
// rays across a field of view (spec.md §4.3).
package vision

import (
	"math"

	"github.com/kase1111-hash/ascii-city-core/affordance"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

// Observer is the minimal set of inputs the vision service needs about a
// looking entity: its tile, facing, field of view, and sight range.
type Observer struct {
	Position coords.Position
	Facing   float64 // radians
	FOV      float64 // radians, full field width
	Range    float64 // tiles
}

// Result is one observer's visibility for the current tick.
type Result struct {
	Visible []coords.Position
	Partial map[coords.Position]float64
}

// Modifiers are the global multipliers spec.md §4.3 applies after ray
// accumulation: ambient light at a tile, a weather visibility factor, and
// the tile's own obscures_vision affordance intensity.
type Modifiers struct {
	AmbientLight          func(coords.Position) float64
	WeatherVisibilityFactor float64
}

// Service runs raycasts against a grid, consulting an affordance composer
// for obscures_vision intensity per tile.
type Service struct {
	g        *grid.Grid
	composer *affordance.Composer
	cfg      config.VisionConfig
}

// NewService builds a vision service over g, using composer to resolve
// obscures_vision at each tile touched by a ray.
func NewService(g *grid.Grid, composer *affordance.Composer, cfg config.VisionConfig) *Service {
	return &Service{g: g, composer: composer, cfg: cfg}
}

// Compute returns observer's visible and partial tile sets for the current
// tick. It never fails; out-of-range or degenerate inputs simply yield an
// empty result (spec.md §4.3 failure semantics).
func (s *Service) Compute(observer Observer, ctx affordance.Context, mods Modifiers) Result {
	result := Result{Partial: make(map[coords.Position]float64)}
	clarity := make(map[coords.Position]float64)

	if observer.FOV <= 0 || observer.Range <= 0 {
		return result
	}

	rayCount := int(math.Ceil(s.cfg.RaysPerRadian * observer.FOV))
	if rayCount < 2 {
		rayCount = 2
	}

	for i := 0; i < rayCount; i++ {
		var angle float64
		if rayCount == 1 {
			angle = observer.Facing
		} else {
			frac := float64(i) / float64(rayCount-1)
			angle = observer.Facing - observer.FOV/2 + frac*observer.FOV
		}
		s.castRay(observer, angle, ctx, mods, clarity)
	}

	for pos, c := range clarity {
		switch {
		case c >= s.cfg.VisibleThreshold:
			result.Visible = append(result.Visible, pos)
		case c >= s.cfg.PartialThreshold:
			result.Partial[pos] = c
		}
	}
	return result
}

func (s *Service) castRay(observer Observer, angle float64, ctx affordance.Context, mods Modifiers, clarity map[coords.Position]float64) {
	dx := math.Cos(angle)
	dy := math.Sin(angle)

	accumulatedOpacity := 0.0
	z := observer.Position.Z

	var prevTilePos coords.Position
	havePrev := false

	steps := int(observer.Range / s.cfg.SubStep)
	for step := 0; step <= steps; step++ {
		d := float64(step) * s.cfg.SubStep
		if d >= observer.Range {
			break
		}
		x := float64(observer.Position.X) + dx*d
		y := float64(observer.Position.Y) + dy*d
		tilePos := coords.Position{X: roundToTile(x), Y: roundToTile(y), Z: z}
		tile := s.g.GetTile(tilePos)

		opacityThisStep := tile.Opacity
		if havePrev && tilePos != prevTilePos && tilePos.X != prevTilePos.X && tilePos.Y != prevTilePos.Y {
			// Diagonal jump: apply the corner rule (spec.md §4.3).
			cornerA := s.g.GetTile(coords.Position{X: tilePos.X, Y: prevTilePos.Y, Z: z})
			cornerB := s.g.GetTile(coords.Position{X: prevTilePos.X, Y: tilePos.Y, Z: z})
			if cornerA.Opacity >= 1 && cornerB.Opacity >= 1 {
				// Both corner tiles are opaque: the ray is blocked and records
				// no clarity for tilePos or anything beyond it.
				return
			}
		}

		rawClarity := (1 - accumulatedOpacity) * (1 - (d/observer.Range)*(d/observer.Range))
		if rawClarity < 0 {
			rawClarity = 0
		}

		finalClarity := s.applyModifiers(rawClarity, tilePos, ctx, mods)
		if finalClarity > clarity[tilePos] {
			clarity[tilePos] = finalClarity
		}

		accumulatedOpacity += opacityThisStep * s.cfg.SubStep
		if accumulatedOpacity > 1 {
			accumulatedOpacity = 1
		}

		prevTilePos = tilePos
		havePrev = true

		if accumulatedOpacity >= s.cfg.OpacityTerminate {
			return
		}
	}
}

func (s *Service) applyModifiers(rawClarity float64, pos coords.Position, ctx affordance.Context, mods Modifiers) float64 {
	c := rawClarity
	if mods.AmbientLight != nil {
		c *= clamp01(mods.AmbientLight(pos))
	}
	if mods.WeatherVisibilityFactor != 0 {
		c *= clamp01(mods.WeatherVisibilityFactor)
	}
	if s.composer != nil {
		composed := s.composer.Compose(pos, ctx)
		if obscures, ok := composed[grid.ObscuresVision]; ok {
			c *= 1 - obscures.Intensity
		}
	}
	return clamp01(c)
}

func roundToTile(v float64) int32 {
	return int32(math.Round(v))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EntityVisible reports whether an entity at entityPos is visible to
// observer, per spec.md §4.3: clarity at the entity's tile ≥ the
// configured threshold, the entity lies within half the field of view of
// the observer's facing, and planar distance is within range.
func (s *Service) EntityVisible(observer Observer, entityPos coords.Position, ctx affordance.Context, mods Modifiers) bool {
	dist := observer.Position.EuclideanDistance(entityPos)
	if dist > observer.Range {
		return false
	}
	angle := observer.Position.AngleTo(entityPos)
	if math.Abs(coords.AngleDelta(observer.Facing, angle)) > observer.FOV/2 {
		return false
	}

	clarity := make(map[coords.Position]float64)
	s.castRay(observer, angle, ctx, mods, clarity)
	return clarity[entityPos] >= s.cfg.EntityVisibleClarity
}
