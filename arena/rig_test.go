package arena

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/crownclash/config"
)

func TestRigOverrideAndRestoreRoundTrip(t *testing.T) {
	w := NewWorld(config.DefaultConfig().Arena, nil)
	w.Lock()
	defer w.Unlock()

	f := w.Spawn("f", cp.Vector{X: 10, Y: 1})
	snap := f.Rig.Snapshot(f)
	if !math.IsInf(snap.Moment, 1) {
		t.Fatalf("fighter torso should spawn rotation-locked, moment = %f", snap.Moment)
	}

	ov := f.Rig.Override(w.Space(), f)
	if ov == nil || !f.Rig.Overridden() {
		t.Fatalf("substitution not built")
	}
	if len(ov.Bodies) != len(f.Rig.Limbs()) {
		t.Fatalf("want one body per limb, got %d for %d limbs", len(ov.Bodies), len(f.Rig.Limbs()))
	}
	// one pivot and one rotary limit per limb
	if len(ov.Constraints) != 2*len(ov.Bodies) {
		t.Fatalf("want 2 constraints per limb, got %d", len(ov.Constraints))
	}
	if math.IsInf(f.Body.Moment(), 1) {
		t.Fatalf("torso rotation still locked while ragdolled")
	}

	// building twice is rejected
	if f.Rig.Override(w.Space(), f) != nil {
		t.Fatalf("second Override built a second substitution")
	}

	f.Body.SetAngle(0.7)
	f.Rig.Quiet()
	f.Rig.Release(w.Space())
	f.Rig.Restore(f, snap)
	f.Rig.Drop(w.Space())

	if f.Rig.Overridden() {
		t.Fatalf("substitution survived Drop")
	}
	if f.Body.Angle() != snap.Angle {
		t.Fatalf("angle %f not restored to %f", f.Body.Angle(), snap.Angle)
	}
	if !math.IsInf(f.Body.Moment(), 1) {
		t.Fatalf("rotation lock not restored")
	}
}

func TestRigDropIsSafeWhenNothingBuilt(t *testing.T) {
	w := NewWorld(config.DefaultConfig().Arena, nil)
	w.Lock()
	defer w.Unlock()

	f := w.Spawn("f", cp.Vector{X: 10, Y: 1})
	f.Rig.Drop(w.Space())
	f.Rig.Release(w.Space())
	f.Rig.Quiet()
	if f.Rig.Overridden() {
		t.Fatalf("override reported without a build")
	}
}
