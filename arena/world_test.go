package arena

import (
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/crownclash/config"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	return NewWorld(config.DefaultConfig().Arena, nil)
}

func TestWorldFighterLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		despawnIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_despawn_middle", 3, 1},
		{"none_despawned", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld(t)
			w.Lock()
			defer w.Unlock()

			fighters := make([]*Fighter, 0, c.create)
			for i := 0; i < c.create; i++ {
				fighters = append(fighters, w.Spawn("f", cp.Vector{X: float64(10 + i*5), Y: 1}))
			}
			if len(w.Fighters()) != c.create {
				t.Fatalf("expected %d fighters, got %d", c.create, len(w.Fighters()))
			}
			if c.despawnIndex >= 0 {
				ref := fighters[c.despawnIndex].Ref()
				if !w.Despawn(ref) {
					t.Fatalf("Despawn should return true for a live fighter")
				}
				if _, ok := w.Resolve(ref); ok {
					t.Fatalf("despawned ref still resolves")
				}
				if w.Despawn(ref) {
					t.Fatalf("second Despawn should be a no-op")
				}
			}
		})
	}
}

func TestWorldSlotReuseInvalidatesOldRef(t *testing.T) {
	w := newTestWorld(t)
	w.Lock()
	defer w.Unlock()

	first := w.Spawn("first", cp.Vector{X: 10, Y: 1})
	oldRef := first.Ref()
	w.Despawn(oldRef)

	second := w.Spawn("second", cp.Vector{X: 12, Y: 1})
	if second.ID() != oldRef.ID {
		t.Fatalf("expected slot reuse, got id %d vs %d", second.ID(), oldRef.ID)
	}
	if _, ok := w.Resolve(oldRef); ok {
		t.Fatalf("stale ref resolves to the slot's new occupant")
	}
	if f, ok := w.Resolve(second.Ref()); !ok || f != second {
		t.Fatalf("fresh ref does not resolve")
	}
}

func TestProbeGround(t *testing.T) {
	w := newTestWorld(t)
	w.Lock()
	defer w.Unlock()

	onFloor := w.Spawn("floor", cp.Vector{X: 10, Y: 1})
	if _, ok := w.ProbeGround(onFloor); !ok {
		t.Fatalf("no surface under a fighter standing on the floor")
	}

	airborne := w.Spawn("air", cp.Vector{X: 20, Y: 10})
	if _, ok := w.ProbeGround(airborne); ok {
		t.Fatalf("surface found under a fighter 9 units up")
	}
}

func TestReseatNudgesOutOfPenetration(t *testing.T) {
	w := newTestWorld(t)
	w.Lock()
	defer w.Unlock()

	f := w.Spawn("f", cp.Vector{X: 10, Y: 1})
	// sink the fighter's base below the floor
	f.Body.SetPosition(cp.Vector{X: 10, Y: 0.8})

	hit, ok := w.ProbeGround(f)
	if !ok {
		t.Fatalf("no surface under a sunk fighter")
	}
	if hit.Penetration <= 0 {
		t.Fatalf("expected penetration, got %f", hit.Penetration)
	}

	w.Reseat(f, hit)
	base := f.Body.Position().Y - f.Height/2
	if base < hit.Point.Y {
		t.Fatalf("fighter base %f still below surface %f after Reseat", base, hit.Point.Y)
	}
}

func TestJumpGating(t *testing.T) {
	w := newTestWorld(t)
	w.Lock()
	defer w.Unlock()

	f := w.Spawn("f", cp.Vector{X: 10, Y: 1})
	if f.Motion != MotionGrounded {
		t.Fatalf("spawned on the floor but motion = %s", f.Motion)
	}
	if !w.Jump(f) {
		t.Fatalf("grounded fighter with an open gate could not jump")
	}
	if f.Motion != MotionAscending {
		t.Fatalf("motion = %s after jump, want ascending", f.Motion)
	}
	if w.Jump(f) {
		t.Fatalf("airborne fighter jumped")
	}

	f2 := w.Spawn("f2", cp.Vector{X: 20, Y: 1})
	f2.JumpEnabled = false
	if w.Jump(f2) {
		t.Fatalf("closed jump gate did not block the jump")
	}

	f3 := w.Spawn("f3", cp.Vector{X: 30, Y: 1})
	f3.Control = ControlRagdolled
	if w.Jump(f3) {
		t.Fatalf("ragdolled fighter jumped")
	}
}

func TestSetMoveHonorsControlAndAuthority(t *testing.T) {
	w := newTestWorld(t)
	w.Lock()
	defer w.Unlock()

	f := w.Spawn("f", cp.Vector{X: 10, Y: 1})
	w.SetMove(f, 1)
	if v := f.Velocity(); v.X <= 0 {
		t.Fatalf("move intent ignored for a normal local fighter: %v", v)
	}
	if f.Facing.X != 1 {
		t.Fatalf("facing not updated from movement")
	}

	f.Body.SetVelocity(0, 0)
	f.Authority = AuthoritySimulation
	w.SetMove(f, 1)
	if v := f.Velocity(); v.X != 0 {
		t.Fatalf("simulation-owned fighter honored local input: %v", v)
	}

	f.Authority = AuthorityLocal
	f.Control = ControlRagdolled
	w.SetMove(f, 1)
	if v := f.Velocity(); v.X != 0 {
		t.Fatalf("ragdolled fighter honored movement input: %v", v)
	}
}
