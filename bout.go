package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/bot"
	"github.com/milk9111/crownclash/combat"
	"github.com/milk9111/crownclash/config"
)

// Bout is the demo runner: scripted fighters brawl in the arena while hit
// events tally crowns.
type Bout struct {
	store *config.Store
	log   *zap.Logger

	world   *arena.World
	core    *combat.Core
	drivers []*bot.Driver

	crowns map[arena.ID]int
	names  map[arena.ID]string
}

// NewBout builds the arena and combat core, spawns the scripted fighters
// spaced across the floor, and subscribes the crown tally to hit events.
func NewBout(store *config.Store, clk clock.Clock, log *zap.Logger) (*Bout, error) {
	cfg := store.Current()
	world := arena.NewWorld(cfg.Arena, log)
	core := combat.NewCore(world, nil, store, clk, log)

	b := &Bout{
		store:  store,
		log:    log,
		world:  world,
		core:   core,
		crowns: make(map[arena.ID]int),
		names:  make(map[arena.ID]string),
	}
	core.Events().Subscribe(func(evt combat.HitEvent) {
		b.crowns[evt.Attacker.ID]++
	})

	src, err := bot.LoadScript(cfg.Bout.Script)
	if err != nil {
		return nil, err
	}

	n := cfg.Bout.Fighters
	if n < 2 {
		n = 2
	}
	world.Lock()
	defer world.Unlock()
	for i := 0; i < n; i++ {
		x := cfg.Arena.Width * float64(i+1) / float64(n+1)
		f := world.Spawn(fmt.Sprintf("fighter-%d", i+1), cp.Vector{X: x, Y: cfg.Arena.FighterHeight})
		b.names[f.ID()] = f.Name
		d, err := bot.New(src, f.Ref(), store)
		if err != nil {
			return nil, err
		}
		b.drivers = append(b.drivers, d)
	}
	return b, nil
}

// Run steps the simulation until the bout length elapses or ctx is done,
// then logs the scoreboard.
func (b *Bout) Run(ctx context.Context, length time.Duration) {
	cfg := b.store.Current()
	dt := 1.0 / float64(cfg.Bout.TickRate)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.Bout.TickRate))
	defer ticker.Stop()
	deadline := time.NewTimer(length)
	defer deadline.Stop()

	think := cfg.Bout.ThinkInterval.Std()
	lastThink := time.Now()

	b.log.Info("bout started",
		zap.Int("fighters", len(b.drivers)),
		zap.Duration("length", length),
		zap.Int("tick_rate", cfg.Bout.TickRate))

	for {
		select {
		case <-ctx.Done():
			b.scoreboard()
			return
		case <-deadline.C:
			b.scoreboard()
			return
		case <-ticker.C:
			b.world.Lock()
			b.world.Step(dt)
			if time.Since(lastThink) >= think {
				lastThink = time.Now()
				for _, d := range b.drivers {
					if err := d.Think(b.world, b.core); err != nil {
						b.log.Warn("bot think failed",
							zap.Int("fighter", int(d.Fighter().ID)),
							zap.Error(err))
					}
				}
			}
			b.world.Unlock()
		}
	}
}

func (b *Bout) scoreboard() {
	type row struct {
		name   string
		crowns int
	}

	b.world.Lock()
	rows := make([]row, 0, len(b.names))
	for id, name := range b.names {
		rows = append(rows, row{name: name, crowns: b.crowns[id]})
	}
	b.world.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].crowns != rows[j].crowns {
			return rows[i].crowns > rows[j].crowns
		}
		return rows[i].name < rows[j].name
	})
	for _, r := range rows {
		b.log.Info("final standing", zap.String("fighter", r.name), zap.Int("crowns", r.crowns))
	}
}
