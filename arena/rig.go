package arena

import (
	"math"

	"github.com/jakecoffman/cp"
)

// LimbSpec describes one articulated limb in its rest configuration.
// Offsets and anchors are in torso-local coordinates.
type LimbSpec struct {
	Name   string
	Anchor cp.Vector // attachment point on the torso
	Offset cp.Vector // limb center at rest
	Radius float64
	Mass   float64
	Swing  float64 // allowed rotation to either side of rest, radians
}

// DefaultLimbs returns the stock five-limb layout scaled to a torso of the
// given width, height, and mass.
func DefaultLimbs(w, h, mass float64) []LimbSpec {
	return []LimbSpec{
		{Name: "head", Anchor: cp.Vector{X: 0, Y: 0.5 * h}, Offset: cp.Vector{X: 0, Y: 0.65 * h}, Radius: 0.15 * h, Mass: 0.15 * mass, Swing: 0.6},
		{Name: "arm_l", Anchor: cp.Vector{X: -0.5 * w, Y: 0.15 * h}, Offset: cp.Vector{X: -0.5*w - 0.09*h, Y: 0.05 * h}, Radius: 0.09 * h, Mass: 0.1 * mass, Swing: 1.3},
		{Name: "arm_r", Anchor: cp.Vector{X: 0.5 * w, Y: 0.15 * h}, Offset: cp.Vector{X: 0.5*w + 0.09*h, Y: 0.05 * h}, Radius: 0.09 * h, Mass: 0.1 * mass, Swing: 1.3},
		{Name: "leg_l", Anchor: cp.Vector{X: -0.2 * w, Y: -0.5 * h}, Offset: cp.Vector{X: -0.2 * w, Y: -0.7 * h}, Radius: 0.1 * h, Mass: 0.15 * mass, Swing: 0.9},
		{Name: "leg_r", Anchor: cp.Vector{X: 0.2 * w, Y: -0.5 * h}, Offset: cp.Vector{X: 0.2 * w, Y: -0.7 * h}, Radius: 0.1 * h, Mass: 0.15 * mass, Swing: 0.9},
	}
}

// RigSnapshot captures the articulation state the ragdoll substitution
// mutates, so recovery can restore it exactly.
type RigSnapshot struct {
	Angle  float64
	Moment float64
	Facing cp.Vector
}

// RigOverride holds the joint-override handles substituted for normal
// articulation during a ragdoll episode.
type RigOverride struct {
	Bodies      []*cp.Body
	Shapes      []*cp.Shape
	Constraints []*cp.Constraint
}

// Rig owns a fighter's articulated-joint configuration and the physical
// substitution built while ragdolled. It is mutated only through the
// ragdoll controller and Despawn.
type Rig struct {
	limbs    []LimbSpec
	override *RigOverride
}

// NewRig creates a rig from limb specs.
func NewRig(limbs []LimbSpec) *Rig {
	return &Rig{limbs: limbs}
}

// Limbs returns the rest configuration.
func (r *Rig) Limbs() []LimbSpec {
	if r == nil {
		return nil
	}
	return r.limbs
}

// Overridden reports whether the physical substitution is currently built.
func (r *Rig) Overridden() bool {
	return r != nil && r.override != nil
}

// OverrideBodies returns the substituted limb bodies, if any are built.
func (r *Rig) OverrideBodies() []*cp.Body {
	if r == nil || r.override == nil {
		return nil
	}
	return r.override.Bodies
}

// Snapshot captures the torso articulation before a ragdoll substitution.
func (r *Rig) Snapshot(f *Fighter) RigSnapshot {
	if f == nil || f.Body == nil {
		return RigSnapshot{}
	}
	return RigSnapshot{
		Angle:  f.Body.Angle(),
		Moment: f.Body.Moment(),
		Facing: f.Facing,
	}
}

// Override substitutes the articulated rig with loosely-limited physical
// joints: one body per limb, pivoted at its anchor, with bounded rotation.
// The torso's rotation lock is lifted so the whole assembly can tumble.
// Returns nil if the substitution is already built.
func (r *Rig) Override(space *cp.Space, f *Fighter) *RigOverride {
	if r == nil || space == nil || f == nil || f.Body == nil {
		return nil
	}
	if r.override != nil {
		return nil
	}

	torso := f.Body
	ov := &RigOverride{}
	pos := torso.Position()
	vel := torso.Velocity()

	w, h := f.Width, f.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	torso.SetMoment(cp.MomentForBox(torso.Mass(), w, h))

	for _, limb := range r.limbs {
		body := cp.NewBody(limb.Mass, cp.MomentForCircle(limb.Mass, 0, limb.Radius, cp.Vector{}))
		body.SetPosition(pos.Add(limb.Offset))
		// inherit the torso's motion so the substitution doesn't jerk
		body.SetVelocityVector(vel)

		shape := cp.NewCircle(body, limb.Radius, cp.Vector{})
		shape.SetFriction(0.8)
		shape.SetCollisionType(collisionTypeLimb)
		shape.SetFilter(cp.NewShapeFilter(f.group, categoryLimb, cp.ALL_CATEGORIES))

		space.AddBody(body)
		space.AddShape(shape)

		pivot := cp.NewPivotJoint2(torso, body, limb.Anchor, limb.Anchor.Sub(limb.Offset))
		rotary := cp.NewRotaryLimitJoint(torso, body, -limb.Swing, limb.Swing)
		space.AddConstraint(pivot)
		space.AddConstraint(rotary)

		ov.Bodies = append(ov.Bodies, body)
		ov.Shapes = append(ov.Shapes, shape)
		ov.Constraints = append(ov.Constraints, pivot, rotary)
	}

	r.override = ov
	return ov
}

// Release removes the override's constraints, leaving the limb bodies in
// place. First step of recovery teardown.
func (r *Rig) Release(space *cp.Space) {
	if r == nil || r.override == nil || space == nil {
		return
	}
	for _, c := range r.override.Constraints {
		space.RemoveConstraint(c)
	}
	r.override.Constraints = nil
}

// Quiet flips the override's limb shapes to sensors so the recovery pose
// snap cannot generate contact impulses.
func (r *Rig) Quiet() {
	if r == nil || r.override == nil {
		return
	}
	for _, s := range r.override.Shapes {
		s.SetSensor(true)
	}
}

// Restore puts the torso articulation back exactly as captured.
func (r *Rig) Restore(f *Fighter, snap RigSnapshot) {
	if r == nil || f == nil || f.Body == nil {
		return
	}
	f.Body.SetAngle(snap.Angle)
	f.Body.SetAngularVelocity(0)
	if snap.Moment != 0 && !math.IsNaN(snap.Moment) {
		f.Body.SetMoment(snap.Moment)
	} else {
		f.Body.SetMoment(math.Inf(1))
	}
	f.Facing = snap.Facing
}

// Drop removes the override's remaining bodies and shapes from the space
// and forgets the substitution. Safe to call when nothing is built.
func (r *Rig) Drop(space *cp.Space) {
	if r == nil || r.override == nil || space == nil {
		return
	}
	for _, c := range r.override.Constraints {
		space.RemoveConstraint(c)
	}
	for _, s := range r.override.Shapes {
		space.RemoveShape(s)
	}
	for _, b := range r.override.Bodies {
		space.RemoveBody(b)
	}
	r.override = nil
}
