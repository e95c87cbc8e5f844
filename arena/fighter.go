package arena

import (
	"github.com/jakecoffman/cp"
)

// ID identifies a fighter slot. Slots are reused after despawn, so holding
// a bare ID across time is unsafe; use a Ref.
type ID int

// Ref is a generational fighter handle. It goes dead when its fighter
// despawns, even if the slot is later reused by a new fighter.
type Ref struct {
	ID  ID
	Gen int
}

// Valid reports whether the ref was ever issued by a world.
func (r Ref) Valid() bool {
	return r.ID > 0
}

// Control says what currently drives a fighter's body: its normal
// articulated control, or the passive ragdoll simulation.
type Control int

const (
	ControlNormal Control = iota
	ControlRagdolled
)

func (c Control) String() string {
	switch c {
	case ControlNormal:
		return "normal"
	case ControlRagdolled:
		return "ragdolled"
	}
	return "unknown"
}

// Authority says which side is trusted to author a fighter's physical
// motion right now.
type Authority int

const (
	AuthorityLocal Authority = iota
	AuthoritySimulation
)

func (a Authority) String() string {
	switch a {
	case AuthorityLocal:
		return "local"
	case AuthoritySimulation:
		return "simulation"
	}
	return "unknown"
}

// Motion is the coarse vertical-motion tag consumed by combat.
type Motion int

const (
	MotionGrounded Motion = iota
	MotionAscending
	MotionFalling
)

func (m Motion) String() string {
	switch m {
	case MotionGrounded:
		return "grounded"
	case MotionAscending:
		return "ascending"
	case MotionFalling:
		return "falling"
	}
	return "unknown"
}

// Fighter is one combat participant. The world creates and destroys
// fighters; combat only reads the pose and flips tags and velocity.
type Fighter struct {
	Name string

	// Body is the torso, the root of the fighter's physical presence.
	Body  *cp.Body
	Shape *cp.Shape

	Width  float64
	Height float64

	// Facing is a unit horizontal vector updated from movement intent.
	Facing cp.Vector

	// Health is read-only to the combat core; fighters at zero are not
	// targetable.
	Health float64

	Control     Control
	Authority   Authority
	Motion      Motion
	JumpEnabled bool

	Rig *Rig

	ref   Ref
	group uint
}

// Ref returns the fighter's generational handle.
func (f *Fighter) Ref() Ref {
	if f == nil {
		return Ref{}
	}
	return f.ref
}

// ID returns the fighter's slot id.
func (f *Fighter) ID() ID {
	if f == nil {
		return 0
	}
	return f.ref.ID
}

// Position returns the torso center in world coordinates.
func (f *Fighter) Position() cp.Vector {
	if f == nil || f.Body == nil {
		return cp.Vector{}
	}
	return f.Body.Position()
}

// Velocity returns the torso's linear velocity.
func (f *Fighter) Velocity() cp.Vector {
	if f == nil || f.Body == nil {
		return cp.Vector{}
	}
	return f.Body.Velocity()
}

// Alive reports whether the fighter can still participate in combat.
func (f *Fighter) Alive() bool {
	return f != nil && f.Health > 0
}
