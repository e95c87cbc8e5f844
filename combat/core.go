package combat

import (
	"errors"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/config"
)

var (
	// ErrSwingInProgress rejects a swing started while the attacker's
	// previous swing is still sampling. Busy, not queued.
	ErrSwingInProgress = errors.New("combat: swing already in progress")
	// ErrAlreadyRagdolled rejects re-entering a ragdoll; the first ragdoll
	// wins until its recovery completes.
	ErrAlreadyRagdolled = errors.New("combat: fighter already ragdolled")
	// ErrUnknownFighter rejects operations on a nil fighter or a dead ref.
	ErrUnknownFighter = errors.New("combat: unknown fighter")
)

// Roster supplies the fighters currently eligible for combat. The
// surrounding lobby/round gating decides who that is; the core only ever
// sees the filtered result.
type Roster interface {
	Fighters() []*arena.Fighter
}

// Core wires the combat components together and drives the swing state
// machine. Public methods assume the caller holds the simulation lock;
// scheduled timer callbacks take it themselves.
type Core struct {
	world  *arena.World
	roster Roster
	tuning *config.Store
	clock  clock.Clock
	log    *zap.Logger

	authority *Authority
	impulses  *Impulses
	ragdolls  *Ragdolls
	emitter   Emitter

	sessions map[arena.ID]*SwingSession
}

// NewCore builds the combat core on top of an arena. A nil roster means
// everyone in the world is eligible.
func NewCore(world *arena.World, roster Roster, tuning *config.Store, clk clock.Clock, log *zap.Logger) *Core {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if roster == nil {
		roster = world
	}
	authority := NewAuthority(log)
	impulses := NewImpulses(world, tuning, clk, log)
	return &Core{
		world:     world,
		roster:    roster,
		tuning:    tuning,
		clock:     clk,
		log:       log,
		authority: authority,
		impulses:  impulses,
		ragdolls:  NewRagdolls(world, tuning, clk, authority, impulses, log),
		sessions:  make(map[arena.ID]*SwingSession),
	}
}

// Authority returns the authority coordinator.
func (c *Core) Authority() *Authority {
	return c.authority
}

// Impulses returns the impulse manager.
func (c *Core) Impulses() *Impulses {
	return c.impulses
}

// Ragdolls returns the ragdoll controller.
func (c *Core) Ragdolls() *Ragdolls {
	return c.ragdolls
}

// Events returns the hit event emitter for subscribers.
func (c *Core) Events() *Emitter {
	return &c.emitter
}
