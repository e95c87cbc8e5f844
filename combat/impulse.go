package combat

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/config"
)

// ImpulseRecord is one live knockback effect on a fighter. At most one
// exists per fighter; applying a new impulse tears the old one down first.
type ImpulseRecord struct {
	Direction cp.Vector
	Magnitude float64
	AppliedAt time.Time
	Expiry    time.Duration

	owner arena.Ref
	timer *clock.Timer
}

// Owner returns the ref of the fighter the impulse acts on.
func (r *ImpulseRecord) Owner() arena.Ref {
	if r == nil {
		return arena.Ref{}
	}
	return r.owner
}

// Impulses owns creation, replacement, and timed teardown of knockback
// impulses. The launch is held by a velocity-update override on the torso
// for the expiry window; teardown removes the override without touching
// whatever velocity the body has accrued by then.
//
// Methods assume the caller holds the simulation lock; expiry timers take
// it themselves.
type Impulses struct {
	world  *arena.World
	tuning *config.Store
	clock  clock.Clock
	log    *zap.Logger

	live map[arena.ID]*ImpulseRecord
}

// NewImpulses creates the impulse manager.
func NewImpulses(world *arena.World, tuning *config.Store, clk clock.Clock, log *zap.Logger) *Impulses {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Impulses{
		world:  world,
		tuning: tuning,
		clock:  clk,
		log:    log,
		live:   make(map[arena.ID]*ImpulseRecord),
	}
}

// Apply launches a fighter along dir at magnitude and schedules the
// automatic teardown. Any live impulse on the fighter is destroyed first,
// so the surviving record always reflects this call.
func (m *Impulses) Apply(f *arena.Fighter, dir cp.Vector, magnitude float64) {
	if m == nil || f == nil || f.Body == nil {
		return
	}
	if old, ok := m.live[f.ID()]; ok {
		m.teardown(old, f)
	}

	expiry := m.tuning.Current().Combat.ImpulseExpiry.Std()
	launch := dir.Mult(magnitude)

	f.Body.SetVelocityVector(launch)
	// hold the launch against gravity until the record expires
	f.Body.SetVelocityUpdateFunc(func(body *cp.Body, _ cp.Vector, _ float64, _ float64) {
		body.SetVelocityVector(launch)
	})

	rec := &ImpulseRecord{
		Direction: dir,
		Magnitude: magnitude,
		AppliedAt: m.clock.Now(),
		Expiry:    expiry,
		owner:     f.Ref(),
	}
	m.live[f.ID()] = rec
	rec.timer = m.clock.AfterFunc(expiry, func() { m.expire(rec) })

	m.log.Debug("impulse applied",
		zap.Int("id", int(f.ID())),
		zap.String("name", f.Name),
		zap.Float64("magnitude", magnitude),
		zap.Duration("expiry", expiry))
}

// Drop tears down the live impulse for ref, if any. Used when another
// lifecycle must guarantee no hold mechanism survives it. Safe no-op when
// nothing is live or the fighter is gone.
func (m *Impulses) Drop(ref arena.Ref) {
	if m == nil {
		return
	}
	rec, ok := m.live[ref.ID]
	if !ok || rec.owner != ref {
		return
	}
	f, ok := m.world.Resolve(ref)
	if !ok {
		delete(m.live, ref.ID)
		return
	}
	m.teardown(rec, f)
}

// Live returns the live impulse record for ref, if any.
func (m *Impulses) Live(ref arena.Ref) (*ImpulseRecord, bool) {
	if m == nil {
		return nil, false
	}
	rec, ok := m.live[ref.ID]
	if !ok || rec.owner != ref {
		return nil, false
	}
	return rec, true
}

// expire is the scheduled teardown at the end of the expiry window.
func (m *Impulses) expire(rec *ImpulseRecord) {
	if m == nil || rec == nil || m.world == nil {
		return
	}
	m.world.Lock()
	defer m.world.Unlock()

	current, ok := m.live[rec.owner.ID]
	if !ok || current != rec {
		// replaced or already torn down
		return
	}
	delete(m.live, rec.owner.ID)

	f, ok := m.world.Resolve(rec.owner)
	if !ok || f.Body == nil {
		// fighter vanished before expiry
		return
	}
	f.Body.SetVelocityUpdateFunc(cp.BodyUpdateVelocity)
	m.log.Debug("impulse expired", zap.Int("id", int(rec.owner.ID)))
}

// teardown removes the hold mechanism immediately. The velocity the body
// has accrued stays untouched.
func (m *Impulses) teardown(rec *ImpulseRecord, f *arena.Fighter) {
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(m.live, rec.owner.ID)
	if f != nil && f.Body != nil {
		f.Body.SetVelocityUpdateFunc(cp.BodyUpdateVelocity)
	}
}
