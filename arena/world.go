package arena

import (
	"math"
	"sort"
	"sync"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/common"
	"github.com/milk9111/crownclash/config"
)

const (
	collisionTypeStatic cp.CollisionType = iota + 1
	collisionTypeFighter
	collisionTypeLimb
)

const (
	categoryStatic uint = 1 << iota
	categoryFighter
	categoryLimb
)

const (
	// groundProbeDepth is how far below a fighter's base the downward
	// surface probe reaches.
	groundProbeDepth = 0.6
	// surfaceMargin is the clearance restored when a probe shows the
	// fighter penetrating the surface it stands on.
	surfaceMargin = 0.05
	// motionEpsilon separates ascending/falling from resting vertical speed.
	motionEpsilon = 0.05

	spawnHealth = 100
)

// SurfaceHit describes a surface found by a downward ground probe.
type SurfaceHit struct {
	Point  cp.Vector
	Normal cp.Vector
	// Penetration is how far the fighter's base sits below the surface;
	// zero when the fighter rests on or above it.
	Penetration float64
}

// World owns the Chipmunk space and every fighter in it. It also carries
// the simulation lock: compound operations (combat calls, timer callbacks,
// stepping) bracket themselves with Lock/Unlock, and the World's own
// methods assume the caller holds the lock.
type World struct {
	mu    sync.Mutex
	space *cp.Space
	cfg   config.ArenaConfig
	log   *zap.Logger

	fighters map[ID]*Fighter
	gen      []int
	free     []ID
	nextID   ID
}

// NewWorld builds an arena with a static floor and walls.
func NewWorld(cfg config.ArenaConfig, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}

	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: -cfg.Gravity})

	w := &World{
		space:    space,
		cfg:      cfg,
		log:      log,
		fighters: make(map[ID]*Fighter),
	}
	w.buildStaticShapes()
	return w
}

// Lock acquires the simulation lock.
func (w *World) Lock() {
	w.mu.Lock()
}

// Unlock releases the simulation lock.
func (w *World) Unlock() {
	w.mu.Unlock()
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

func (w *World) buildStaticShapes() {
	width := w.cfg.Width
	height := w.cfg.Height
	if width <= 0 || height <= 0 {
		return
	}
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: width, Y: 0}},
		{a: cp.Vector{X: 0, Y: height}, b: cp.Vector{X: width, Y: height}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: height}},
		{a: cp.Vector{X: width, Y: 0}, b: cp.Vector{X: width, Y: height}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(w.space.StaticBody, seg.a, seg.b, 0)
		shape.SetFriction(w.cfg.Friction)
		shape.SetCollisionType(collisionTypeStatic)
		shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryStatic, cp.ALL_CATEGORIES))
		w.space.AddShape(shape)
	}
}

// Spawn creates a fighter at pos. Callers must hold the simulation lock.
func (w *World) Spawn(name string, pos cp.Vector) *Fighter {
	if w == nil || w.space == nil {
		return nil
	}

	id := w.allocID()
	mass := w.cfg.FighterMass
	fw := w.cfg.FighterWidth
	fh := w.cfg.FighterHeight

	body := cp.NewBody(mass, math.Inf(1))
	body.SetPosition(w.clampInside(pos, fw, fh))
	body.SetAngle(0)
	body.SetAngularVelocity(0)

	shape := cp.NewBox(body, fw, fh, 0)
	shape.SetFriction(w.cfg.Friction)
	shape.SetCollisionType(collisionTypeFighter)
	shape.SetFilter(cp.NewShapeFilter(uint(id), categoryFighter, cp.ALL_CATEGORIES))

	w.space.AddBody(body)
	w.space.AddShape(shape)

	f := &Fighter{
		Name:        name,
		Body:        body,
		Shape:       shape,
		Width:       fw,
		Height:      fh,
		Facing:      cp.Vector{X: 1, Y: 0},
		Health:      spawnHealth,
		Control:     ControlNormal,
		Authority:   AuthorityLocal,
		Motion:      MotionFalling,
		JumpEnabled: true,
		Rig:         NewRig(DefaultLimbs(fw, fh, mass)),
		ref:         Ref{ID: id, Gen: w.gen[id-1]},
		group:       uint(id),
	}
	w.fighters[id] = f
	w.updateMotion(f)

	w.log.Debug("fighter spawned",
		zap.Int("id", int(id)),
		zap.String("name", name),
		zap.Float64("x", f.Position().X),
		zap.Float64("y", f.Position().Y))
	return f
}

// Despawn removes a fighter and everything it owns from the space.
// Callers must hold the simulation lock. Safe no-op on a dead ref.
func (w *World) Despawn(ref Ref) bool {
	f, ok := w.Resolve(ref)
	if !ok {
		return false
	}

	if f.Rig != nil {
		f.Rig.Drop(w.space)
	}
	if f.Shape != nil {
		w.space.RemoveShape(f.Shape)
	}
	if f.Body != nil {
		w.space.RemoveBody(f.Body)
	}
	f.Body = nil
	f.Shape = nil

	w.gen[ref.ID-1]++
	delete(w.fighters, ref.ID)
	w.free = append(w.free, ref.ID)

	w.log.Debug("fighter despawned", zap.Int("id", int(ref.ID)), zap.String("name", f.Name))
	return true
}

// Resolve returns the live fighter for ref, or false if it despawned.
func (w *World) Resolve(ref Ref) (*Fighter, bool) {
	if w == nil || ref.ID <= 0 || int(ref.ID) > len(w.gen) {
		return nil, false
	}
	if w.gen[ref.ID-1] != ref.Gen {
		return nil, false
	}
	f, ok := w.fighters[ref.ID]
	return f, ok
}

// Fighters returns the current roster ordered by id. The slice is a
// snapshot; the fighters are live.
func (w *World) Fighters() []*Fighter {
	if w == nil {
		return nil
	}
	out := make([]*Fighter, 0, len(w.fighters))
	for _, f := range w.fighters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Step advances the physics simulation and refreshes motion tags for
// fighters under normal control. Callers must hold the simulation lock.
func (w *World) Step(dt float64) {
	if w == nil || w.space == nil || dt <= 0 {
		return
	}
	w.space.Step(dt)
	for _, f := range w.fighters {
		if f.Control == ControlNormal {
			w.updateMotion(f)
		}
	}
}

func (w *World) updateMotion(f *Fighter) {
	if f == nil || f.Body == nil {
		return
	}
	vy := f.Body.Velocity().Y
	if vy > motionEpsilon {
		f.Motion = MotionAscending
		return
	}
	if _, ok := w.ProbeGround(f); ok {
		f.Motion = MotionGrounded
		return
	}
	f.Motion = MotionFalling
}

// ProbeGround casts straight down from the fighter's torso to just below
// its base and reports the first surface found. Only static geometry is
// considered; the fighter's own shapes never block the probe.
func (w *World) ProbeGround(f *Fighter) (SurfaceHit, bool) {
	if w == nil || w.space == nil || f == nil || f.Body == nil {
		return SurfaceHit{}, false
	}
	pos := f.Body.Position()
	base := pos.Y - f.Height/2
	start := pos
	end := cp.Vector{X: pos.X, Y: base - groundProbeDepth}

	filter := cp.NewShapeFilter(f.group, categoryFighter, categoryStatic)
	info := w.space.SegmentQueryFirst(start, end, 0, filter)
	if info.Shape == nil {
		return SurfaceHit{}, false
	}
	hit := SurfaceHit{Point: info.Point, Normal: info.Normal}
	if info.Point.Y > base {
		hit.Penetration = info.Point.Y - base
	}
	return hit, true
}

// Reseat nudges a fighter up out of the surface a ground probe found it
// penetrating. No-op when the probe showed no penetration.
func (w *World) Reseat(f *Fighter, hit SurfaceHit) {
	if w == nil || f == nil || f.Body == nil {
		return
	}
	if hit.Penetration <= 0 {
		return
	}
	pos := f.Body.Position()
	f.Body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y + hit.Penetration + surfaceMargin})
}

// SetMove applies horizontal movement intent. Ignored unless the fighter
// is under normal control with local authority, which is how the
// simulation decides whose input stream is honored.
func (w *World) SetMove(f *Fighter, dir float64) {
	if w == nil || f == nil || f.Body == nil {
		return
	}
	if f.Control != ControlNormal || f.Authority != AuthorityLocal {
		return
	}
	dir = common.Clamp(dir, -1, 1)
	v := f.Body.Velocity()
	f.Body.SetVelocity(dir*w.cfg.MoveSpeed, v.Y)
	if dir > 0 {
		f.Facing = cp.Vector{X: 1, Y: 0}
	} else if dir < 0 {
		f.Facing = cp.Vector{X: -1, Y: 0}
	}
}

// Jump launches a grounded fighter upward. Returns false when the jump
// gate is closed or the fighter is not in a state that can jump.
func (w *World) Jump(f *Fighter) bool {
	if w == nil || f == nil || f.Body == nil {
		return false
	}
	if !f.JumpEnabled || f.Control != ControlNormal || f.Authority != AuthorityLocal {
		return false
	}
	if f.Motion != MotionGrounded {
		return false
	}
	v := f.Body.Velocity()
	f.Body.SetVelocity(v.X, w.cfg.JumpSpeed)
	f.Motion = MotionAscending
	return true
}

func (w *World) allocID() ID {
	var id ID
	if len(w.free) > 0 {
		id = w.free[len(w.free)-1]
		w.free = w.free[:len(w.free)-1]
	} else {
		w.nextID++
		id = w.nextID
	}
	for int(id) > len(w.gen) {
		w.gen = append(w.gen, 0)
	}
	return id
}

func (w *World) clampInside(pos cp.Vector, fw, fh float64) cp.Vector {
	halfW := fw / 2
	halfH := fh / 2
	x := pos.X
	y := pos.Y
	if w.cfg.Width > 0 {
		if x < halfW {
			x = halfW
		}
		if x > w.cfg.Width-halfW {
			x = w.cfg.Width - halfW
		}
	}
	if y < halfH {
		y = halfH
	}
	if w.cfg.Height > 0 && y > w.cfg.Height-halfH {
		y = w.cfg.Height - halfH
	}
	return cp.Vector{X: x, Y: y}
}

