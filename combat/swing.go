package combat

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
)

// SwingState is where a swing session is in its lifecycle.
type SwingState int

const (
	SwingSampling SwingState = iota
	SwingResolved
	SwingExpired
)

func (s SwingState) String() string {
	switch s {
	case SwingSampling:
		return "sampling"
	case SwingResolved:
		return "resolved"
	case SwingExpired:
		return "expired"
	}
	return "unknown"
}

// SwingSession is one attack attempt. The tuning it runs with is captured
// at start, so a config hot swap never changes an in-flight swing.
type SwingSession struct {
	attacker  arena.Ref
	rng       float64
	duration  time.Duration
	samples   int
	interval  time.Duration
	startedAt time.Time

	// resolved is the single serialization point for first-hit-wins: two
	// near-simultaneous sample ticks cannot both claim the hit.
	resolved atomic.Bool
	fired    int
	state    SwingState
	timers   []*clock.Timer
}

// stopTimers cancels every sample tick still pending.
func (s *SwingSession) stopTimers() {
	for _, t := range s.timers {
		if t != nil {
			t.Stop()
		}
	}
}

// Attacker returns the ref of the fighter swinging.
func (s *SwingSession) Attacker() arena.Ref {
	if s == nil {
		return arena.Ref{}
	}
	return s.attacker
}

// State returns the session's lifecycle state.
func (s *SwingSession) State() SwingState {
	if s == nil {
		return SwingExpired
	}
	return s.state
}

// StartSwing begins an attack for f: the swing's duration is split into
// sampleCount intervals and a target query runs at the end of each one.
// The first sample fires after one full interval, never at t=0 — detection
// happens during the swing, not at its instant of initiation.
//
// Returns ErrSwingInProgress while a previous swing is still sampling.
func (c *Core) StartSwing(f *arena.Fighter) error {
	if c == nil || f == nil || !f.Ref().Valid() {
		return ErrUnknownFighter
	}
	if _, ok := c.world.Resolve(f.Ref()); !ok {
		return ErrUnknownFighter
	}
	if prev, ok := c.sessions[f.ID()]; ok {
		if prev.attacker == f.Ref() {
			return ErrSwingInProgress
		}
		// slot reused after a despawn; the stale session is inert
		prev.stopTimers()
		delete(c.sessions, f.ID())
	}

	cfg := c.tuning.Current().Combat
	s := &SwingSession{
		attacker:  f.Ref(),
		rng:       cfg.AttackRange,
		duration:  cfg.AttackDuration.Std(),
		samples:   cfg.SampleCount,
		startedAt: c.clock.Now(),
	}
	if s.samples < 1 {
		s.samples = 1
	}
	s.interval = s.duration / time.Duration(s.samples)
	c.sessions[f.ID()] = s
	for i := 1; i <= s.samples; i++ {
		s.timers = append(s.timers, c.clock.AfterFunc(s.interval*time.Duration(i), func() { c.sample(s) }))
	}

	c.log.Debug("swing started",
		zap.Int("attacker", int(f.ID())),
		zap.String("name", f.Name),
		zap.Duration("duration", s.duration),
		zap.Int("samples", s.samples))
	return nil
}

// Swinging reports whether the fighter has a session still sampling.
func (c *Core) Swinging(ref arena.Ref) bool {
	if c == nil {
		return false
	}
	s, ok := c.sessions[ref.ID]
	return ok && s.attacker == ref
}

// sample is one scheduled hit-detection tick.
func (c *Core) sample(s *SwingSession) {
	if c == nil || s == nil {
		return
	}
	c.world.Lock()
	defer c.world.Unlock()

	if c.sessions[s.attacker.ID] != s {
		// session already resolved, expired, or displaced
		return
	}
	attacker, ok := c.world.Resolve(s.attacker)
	if !ok {
		// attacker vanished mid-swing; drop the session silently
		s.stopTimers()
		delete(c.sessions, s.attacker.ID)
		return
	}

	s.fired++
	target, found := FindTarget(c.roster.Fighters(), attacker, s.rng)
	if found && s.resolved.CompareAndSwap(false, true) {
		s.state = SwingResolved
		s.stopTimers()
		delete(c.sessions, s.attacker.ID)
		c.hit(attacker, target)
		return
	}
	if s.fired >= s.samples {
		s.state = SwingExpired
		delete(c.sessions, s.attacker.ID)
		c.log.Debug("swing expired", zap.Int("attacker", int(s.attacker.ID)))
	}
}

// hit runs the pipeline for a resolved swing, exactly once per session.
// Each step is a hard precondition for the next.
func (c *Core) hit(attacker, target *arena.Fighter) {
	cfg := c.tuning.Current().Combat

	// 1. Close the jump gate before any knockback math runs, so no ascent
	// momentum can accumulate under the impulse about to be applied.
	target.JumpEnabled = false
	if target.Motion == arena.MotionAscending {
		if target.Body != nil {
			v := target.Body.Velocity()
			if v.Y > 0 {
				v.Y = 0
			}
			target.Body.SetVelocityVector(v)
		}
		target.Motion = arena.MotionFalling
	}

	// 2. Knockback direction: attacker-to-target, blended with the upward
	// bias so the launch arcs instead of sliding.
	flat := target.Position().Sub(attacker.Position())
	if flat.Length() == 0 {
		flat = attacker.Facing
	}
	dir := flat.Normalize().Mult(1 - cfg.UpwardBias).
		Add(cp.Vector{X: 0, Y: cfg.UpwardBias}).
		Normalize()

	// 3. One side owns the resulting motion before it exists.
	c.authority.Take(target)

	// 4-5. Launch, then drop into ragdoll. A target already ragdolled keeps
	// its original clock; the impulse still replaces.
	c.impulses.Apply(target, dir, cfg.PushMagnitude)
	if err := c.ragdolls.Enter(target); err != nil {
		c.log.Debug("ragdoll held", zap.Int("target", int(target.ID())), zap.Error(err))
	}

	evt := HitEvent{Attacker: attacker.Ref(), Target: target.Ref(), At: c.clock.Now()}
	c.emitter.Emit(evt)
	c.log.Info("hit resolved",
		zap.Int("attacker", int(attacker.ID())),
		zap.Int("target", int(target.ID())),
		zap.String("attacker_name", attacker.Name),
		zap.String("target_name", target.Name))
}
