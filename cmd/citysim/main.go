// Command citysim is a minimal runnable harness for manual and CI smoke
// runs: it builds a toy grid, registers a player and one guard, and steps
// the tick driver a fixed number of times, printing a one-line summary of
// each published snapshot.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/affordance"
	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
	"github.com/kase1111-hash/ascii-city-core/savesystem"
	"github.com/kase1111-hash/ascii-city-core/threat"
	"github.com/kase1111-hash/ascii-city-core/tick"
)

func main() {
	ticks := flag.Int("ticks", 20, "number of ticks to simulate")
	size := flag.Int("size", 16, "width/height of the toy grid")
	saveDir := flag.String("save-dir", "", "if set, save state to this directory after the run")
	loadDir := flag.String("load-dir", "", "if set, load state from this directory before the run")
	verbose := flag.Bool("v", false, "debug-level logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger().Level(level)

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	g := grid.NewGrid(log)
	em := common.NewEntityManager()

	var loadedGlobal *savesystem.GlobalChunk
	if *loadDir != "" {
		loadedGlobal = loadAll(g, *loadDir, &log)
	} else {
		g.Generate(toyGrid(int32(*size)))
	}

	driver := tick.NewDriver(cfg, g, em, affordance.WorldRules{}, nil, nil, nil, nil, log)
	if loadedGlobal != nil && loadedGlobal.RNG != nil {
		driver.SetTick(loadedGlobal.Tick)
		driver.SetRNG(loadedGlobal.RNG)
	}

	player := em.NewEntity(coords.Position{X: int32(*size) / 2, Y: int32(*size) / 2, Z: 0}, 0, 1, common.KindPlayer)
	driver.SetPlayer(player.GetID())
	driver.RegisterObserver(player.GetID(), common.Bias{}, false, fullCircle, 10)

	guard := em.NewEntity(coords.Position{X: int32(*size)/2 + 3, Y: int32(*size) / 2, Z: 0}, 0, 1, common.KindThreat)
	driver.RegisterObserver(guard.GetID(), common.Bias{Paranoid: 0.6, Fearful: 0.2}, false, fullCircle, 8)
	driver.RegisterThreat(guard.GetID(), coords.Position{X: int32(*size)/2 + 3, Y: int32(*size) / 2, Z: 0}, threat.Profile{
		LethalityRangeTiles:    6,
		DamagePotential:        0.5,
		SoundSignature:         0.3,
		VelocityTilesPerSecond: 2,
	})

	for i := 0; i < *ticks; i++ {
		snap := driver.Step()
		fmt.Printf("tick %d: visible=%d partial=%d cues=%d threats=%d transitions=%d\n",
			snap.Tick, len(snap.VisibleTiles), len(snap.PartialTiles), len(snap.AudioCues),
			len(snap.ThreatDescriptors), len(snap.AwarenessTransitions))
	}

	if *saveDir != "" {
		saveAll(driver, *saveDir, &log)
	}
}

const fullCircle = 2 * 3.14159265

func toyGrid(size int32) []grid.TileSpec {
	specs := make([]grid.TileSpec, 0, size*size)
	for x := int32(0); x < size; x++ {
		for y := int32(0); y < size; y++ {
			opacity := 0.0
			if (x+y)%7 == 0 {
				opacity = 1.0
			}
			specs = append(specs, grid.TileSpec{
				Position:    coords.Position{X: x, Y: y, Z: 0},
				TerrainKind: grid.Rock,
				BiomeTag:    "alley",
				Opacity:     opacity,
			})
		}
	}
	return specs
}

func saveAll(d *tick.Driver, dir string, log *zerolog.Logger) {
	chunks := []savesystem.Chunk{
		&savesystem.GridChunk{G: d.Grid()},
		&savesystem.ObserverChunk{Observers: d.Awareness().Observers},
		&savesystem.ThreatChunk{Threats: d.Threats().Threats},
		&savesystem.GlobalChunk{Tick: d.Tick(), RNG: d.RNG()},
	}
	if err := savesystem.Save(chunks, dir); err != nil {
		log.Error().Err(err).Msg("save failed")
	}
}

func loadAll(g *grid.Grid, dir string, log *zerolog.Logger) *savesystem.GlobalChunk {
	gridChunk := &savesystem.GridChunk{G: g}
	global := &savesystem.GlobalChunk{}
	chunks := []savesystem.Chunk{gridChunk, global}
	if err := savesystem.Load(chunks, dir); err != nil {
		log.Error().Err(err).Msg("load failed")
	}
	return global
}
