package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/bot"
	"github.com/milk9111/crownclash/combat"
	"github.com/milk9111/crownclash/config"
)

// soak runs scripted fighters for a long stretch and audits the combat
// invariants every second: ragdoll/control consistency, at most one live
// impulse per fighter, and no authority held outside an active episode.

func main() {
	configPath := flag.String("config", "", "tuning file (YAML); built-in defaults when empty")
	fighters := flag.Int("fighters", 8, "fighter count")
	length := flag.Duration("length", 5*time.Minute, "soak length")
	script := flag.String("script", "", "bot script path (embedded brawler when empty)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
	}
	store := config.NewStore(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	violations, hits := run(ctx, store, logger, *fighters, *length, *script)
	logger.Info("soak finished",
		zap.Int("hits", hits),
		zap.Int("violations", violations),
		zap.Duration("length", *length))
	if violations > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, store *config.Store, logger *zap.Logger, fighters int, length time.Duration, script string) (violations, hits int) {
	cfg := store.Current()
	world := arena.NewWorld(cfg.Arena, logger)
	core := combat.NewCore(world, nil, store, clock.New(), logger)
	core.Events().Subscribe(func(combat.HitEvent) { hits++ })

	src, err := bot.LoadScript(script)
	if err != nil {
		logger.Fatal("load script", zap.Error(err))
	}
	if fighters < 2 {
		fighters = 2
	}

	var drivers []*bot.Driver
	world.Lock()
	for i := 0; i < fighters; i++ {
		x := cfg.Arena.Width * float64(i+1) / float64(fighters+1)
		f := world.Spawn(fmt.Sprintf("soak-%d", i+1), cp.Vector{X: x, Y: cfg.Arena.FighterHeight})
		d, err := bot.New(src, f.Ref(), store)
		if err != nil {
			world.Unlock()
			logger.Fatal("compile script", zap.Error(err))
		}
		drivers = append(drivers, d)
	}
	world.Unlock()

	dt := 1.0 / float64(cfg.Bout.TickRate)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.Bout.TickRate))
	defer ticker.Stop()
	auditTicker := time.NewTicker(time.Second)
	defer auditTicker.Stop()
	deadline := time.NewTimer(length)
	defer deadline.Stop()

	think := cfg.Bout.ThinkInterval.Std()
	lastThink := time.Now()

	for {
		select {
		case <-ctx.Done():
			return violations, hits
		case <-deadline.C:
			return violations, hits
		case <-auditTicker.C:
			world.Lock()
			for _, msg := range audit(world, core) {
				violations++
				logger.Error("invariant violated", zap.String("detail", msg))
			}
			world.Unlock()
		case <-ticker.C:
			world.Lock()
			world.Step(dt)
			if time.Since(lastThink) >= think {
				lastThink = time.Now()
				for _, d := range drivers {
					if err := d.Think(world, core); err != nil {
						logger.Warn("bot think failed", zap.Error(err))
					}
				}
			}
			world.Unlock()
		}
	}
}

// audit checks every fighter against the combat invariants. Callers hold
// the simulation lock.
func audit(world *arena.World, core *combat.Core) []string {
	var out []string
	for _, f := range world.Fighters() {
		ref := f.Ref()
		_, ragdolled := core.Ragdolls().Live(ref)
		if ragdolled != (f.Control == arena.ControlRagdolled) {
			out = append(out, fmt.Sprintf(
				"fighter %d: control=%s but ragdoll state live=%t", ref.ID, f.Control, ragdolled))
		}
		_, impulse := core.Impulses().Live(ref)
		if f.Authority == arena.AuthoritySimulation && !ragdolled && !impulse {
			out = append(out, fmt.Sprintf(
				"fighter %d: simulation authority held outside any episode", ref.ID))
		}
		if f.Rig != nil && f.Rig.Overridden() != (f.Control == arena.ControlRagdolled) {
			out = append(out, fmt.Sprintf(
				"fighter %d: rig override=%t with control=%s", ref.ID, f.Rig.Overridden(), f.Control))
		}
	}
	return out
}
