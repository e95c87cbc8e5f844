package combat

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/config"
)

// RagdollState is one loss-of-control episode. It exists exactly while the
// owning fighter's control tag is Ragdolled.
type RagdollState struct {
	owner     arena.Ref
	snapshot  arena.RigSnapshot
	startedAt time.Time

	pendingRecovery bool
	recoveryTimer   *clock.Timer
	jumpTimer       *clock.Timer
}

// Owner returns the ref of the ragdolled fighter.
func (s *RagdollState) Owner() arena.Ref {
	if s == nil {
		return arena.Ref{}
	}
	return s.owner
}

// Ragdolls transitions fighters into the physically-simulated
// loss-of-control state and recovers them to normal control with exactly
// zero residual velocity. One episode per fighter; a second hit during an
// active ragdoll never restarts the clock.
//
// Methods assume the caller holds the simulation lock; recovery and jump
// timers take it themselves.
type Ragdolls struct {
	world     *arena.World
	tuning    *config.Store
	clock     clock.Clock
	authority *Authority
	impulses  *Impulses
	log       *zap.Logger

	live map[arena.ID]*RagdollState
}

// NewRagdolls creates the ragdoll controller.
func NewRagdolls(world *arena.World, tuning *config.Store, clk clock.Clock, authority *Authority, impulses *Impulses, log *zap.Logger) *Ragdolls {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ragdolls{
		world:     world,
		tuning:    tuning,
		clock:     clk,
		authority: authority,
		impulses:  impulses,
		log:       log,
		live:      make(map[arena.ID]*RagdollState),
	}
}

// Enter drops a fighter into ragdoll: the current articulation is saved,
// loosely-limited physical joints are substituted for it, jump input is
// disallowed, and the recovery timer is armed.
//
// Returns ErrAlreadyRagdolled while an episode is active. A fighter with
// no body or rig is skipped silently; nothing else is affected.
func (g *Ragdolls) Enter(f *arena.Fighter) error {
	if g == nil || f == nil || !f.Ref().Valid() {
		return ErrUnknownFighter
	}
	if f.Control == arena.ControlRagdolled {
		return ErrAlreadyRagdolled
	}
	if f.Body == nil || f.Rig == nil {
		return nil
	}

	snap := f.Rig.Snapshot(f)
	if ov := f.Rig.Override(g.world.Space(), f); ov == nil {
		return nil
	}

	f.Control = arena.ControlRagdolled
	f.JumpEnabled = false

	st := &RagdollState{
		owner:     f.Ref(),
		snapshot:  snap,
		startedAt: g.clock.Now(),
	}
	g.live[f.ID()] = st

	duration := g.tuning.Current().Combat.RagdollDuration.Std()
	st.recoveryTimer = g.clock.AfterFunc(duration, func() { g.recover(st) })

	g.log.Debug("ragdoll entered",
		zap.Int("id", int(f.ID())),
		zap.String("name", f.Name),
		zap.Duration("duration", duration))
	return nil
}

// Live returns the active ragdoll state for ref, if any.
func (g *Ragdolls) Live(ref arena.Ref) (*RagdollState, bool) {
	if g == nil {
		return nil, false
	}
	st, ok := g.live[ref.ID]
	if !ok || st.owner != ref {
		return nil, false
	}
	return st, true
}

// recover runs when the ragdoll duration elapses. The owner having
// despawned makes the whole thing a no-op.
func (g *Ragdolls) recover(st *RagdollState) {
	if g == nil || st == nil || g.world == nil {
		return
	}
	g.world.Lock()
	defer g.world.Unlock()

	if g.live[st.owner.ID] != st {
		return
	}
	st.pendingRecovery = true

	f, ok := g.world.Resolve(st.owner)
	if !ok {
		delete(g.live, st.owner.ID)
		return
	}

	// A live impulse hold would re-inject its launch velocity the moment
	// we zero it; the mechanism must not outlive the ragdoll.
	g.impulses.Drop(st.owner)

	// 1. Exactly zero, not damped: any residual injected here is an
	// unintended launch.
	if f.Body != nil {
		f.Body.SetVelocity(0, 0)
		f.Body.SetAngularVelocity(0)
	}
	for _, b := range f.Rig.OverrideBodies() {
		b.SetVelocityVector(cp.Vector{})
		b.SetAngularVelocity(0)
	}

	// 2-3. Quiet the limbs so the pose snap cannot generate contact
	// impulses, remove the substitution, restore the saved articulation.
	space := g.world.Space()
	f.Rig.Quiet()
	f.Rig.Release(space)
	f.Rig.Restore(f, st.snapshot)
	f.Rig.Drop(space)

	// 4. Motion is the fighter's own again.
	g.authority.Release(f)

	// 5. Grounded or falling, decided by the probe; no velocity injected
	// on either branch.
	if hit, found := g.world.ProbeGround(f); found {
		g.world.Reseat(f, hit)
		f.Motion = arena.MotionGrounded
	} else {
		f.Motion = arena.MotionFalling
	}

	// 6. Jump comes back after the delay, not immediately, so a
	// last-instant jump input cannot ride the recovery.
	delay := g.tuning.Current().Combat.JumpRecoveryDelay.Std()
	owner := st.owner
	st.jumpTimer = g.clock.AfterFunc(delay, func() { g.enableJump(owner) })

	// 7.
	f.Control = arena.ControlNormal
	delete(g.live, st.owner.ID)

	g.log.Debug("ragdoll recovered",
		zap.Int("id", int(f.ID())),
		zap.String("name", f.Name),
		zap.String("motion", f.Motion.String()))
}

// enableJump reopens the jump gate after the recovery delay. A fighter
// that despawned or got ragdolled again in the meantime is left alone;
// the new episode's own recovery re-arms the gate.
func (g *Ragdolls) enableJump(ref arena.Ref) {
	g.world.Lock()
	defer g.world.Unlock()

	f, ok := g.world.Resolve(ref)
	if !ok || f.Control != arena.ControlNormal {
		return
	}
	f.JumpEnabled = true
}
