// Command aquabend runs the simulation headless: it builds a world from
// configuration, drives the engine at a fixed 60 Hz, and logs gameplay
// events. A demo pilot scripts the absorb and fire gestures so the full
// collect/fire/explode loop exercises itself without a renderer attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/aquabend/aquabend/internal/core/config"
	"github.com/aquabend/aquabend/internal/core/engine"
	"github.com/aquabend/aquabend/internal/core/events/bus"
	"github.com/aquabend/aquabend/internal/core/observability/log"
	"github.com/aquabend/aquabend/internal/core/world"
)

const tickRate = 60

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults apply when empty)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	if err := run(*configPath, *duration); err != nil {
		fmt.Fprintln(os.Stderr, "aquabend:", err)
		os.Exit(1)
	}
}

func run(configPath string, duration time.Duration) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	logger := log.New(parseLevel(cfg.LogLevel))

	terrain := world.NewHeightfield(cfg.WorldSeed, cfg.Terrain.GridSize,
		cfg.Terrain.CellSize, cfg.Terrain.MinHeight, cfg.Terrain.MaxHeight)

	// flatten a pond into the terrain and register it as the scene's
	// water source
	pond := world.Source{
		Name:     "pond",
		Position: mgl64.Vec3{30, 0, 30},
		Radius:   10,
	}
	terrain.CarveBasin(pond.Position.X(), pond.Position.Z(), pond.Radius, 3)
	sources := world.NewSourceRegistry(pond)

	pilot := newPilot(pond.Position)
	eng, err := engine.New(cfg, pilot, terrain, sources, logger)
	if err != nil {
		return err
	}
	eng.Register("pilot", pilot.advance)
	logEvents(eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	logger.Info("starting simulation",
		log.String("world", cfg.WorldSeed),
		log.Int("tick_rate", tickRate))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(time.Second / tickRate)
		defer ticker.Stop()
		dt := 1.0 / tickRate
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				eng.Step(dt)
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("simulation stopped",
		log.Uint64("ticks", eng.Tick()),
		log.Int("water", eng.CurrentWaterCount()))
	return nil
}

func logEvents(eng *engine.Engine, logger log.Log) {
	events := logger.With(log.String("component", "events"))
	eng.Events().Subscribe(engine.EventDropCollected, func(ev bus.Event) {
		events.Debug("drops collected",
			log.Int("count", ev.Data.(int)),
			log.Int("water", eng.CurrentWaterCount()))
	})
	eng.Events().Subscribe(engine.EventSpearFired, func(ev bus.Event) {
		events.Info("spear fired", log.Int("water_left", ev.Data.(int)))
	})
	eng.Events().Subscribe(engine.EventSpearExploded, func(ev bus.Event) {
		events.Info("spear exploded", log.Int("drops_scattered", ev.Data.(int)))
	})
	eng.Events().Subscribe(engine.EventBeltFull, func(ev bus.Event) {
		events.Info("belt full", log.Int("capacity", ev.Data.(int)))
	})
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// pilot scripts the player: hover near the pond absorbing ambient water,
// and loose a spear across the valley whenever enough is banked.
type pilot struct {
	pond mgl64.Vec3
	time float64
}

func newPilot(pond mgl64.Vec3) *pilot {
	return &pilot{pond: pond}
}

func (p *pilot) advance(dt float64) {
	p.time += dt
}

func (p *pilot) IsAbsorbing() bool { return true }

func (p *pilot) FireRequested() bool {
	// press the trigger once every four seconds
	phase := math.Mod(p.time, 4.0)
	if phase < 1.0/tickRate && p.time > 1 {
		return true
	}
	return false
}

func (p *pilot) AimPoint() mgl64.Vec3 {
	// sweep the aim slowly around the pond surface
	a := p.time * 0.4
	return p.pond.Add(mgl64.Vec3{math.Cos(a) * 5, 1, math.Sin(a) * 5})
}

func (p *pilot) CharacterPosition() mgl64.Vec3 {
	return p.pond.Add(mgl64.Vec3{-15, 4, 0})
}

func (p *pilot) CameraForward() mgl64.Vec3 {
	return mgl64.Vec3{0.9, 0.35, 0.25}.Normalize()
}
