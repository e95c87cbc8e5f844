package combat

import (
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
)

// Authority coordinates which side authors a fighter's physical motion:
// the fighter's own local control, or the simulation. Its entire contract
// is the per-fighter authority tag; the surrounding simulation reads the
// tag to decide whose input stream is honored.
//
// Take and Release are idempotent so that fighter removal mid-sequence can
// never leave the tag wedged. Callers hold the simulation lock.
type Authority struct {
	log *zap.Logger
}

// NewAuthority creates the coordinator.
func NewAuthority(log *zap.Logger) *Authority {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authority{log: log}
}

// Take moves a fighter's motion authority to the simulation. Taking what
// is already held is a safe no-op.
func (a *Authority) Take(f *arena.Fighter) {
	if a == nil || f == nil || f.Authority == arena.AuthoritySimulation {
		return
	}
	f.Authority = arena.AuthoritySimulation
	a.log.Debug("authority taken", zap.Int("id", int(f.ID())), zap.String("name", f.Name))
}

// Release returns a fighter's motion authority to its local side.
// Releasing what is not held is a safe no-op.
func (a *Authority) Release(f *arena.Fighter) {
	if a == nil || f == nil || f.Authority == arena.AuthorityLocal {
		return
	}
	f.Authority = arena.AuthorityLocal
	a.log.Debug("authority released", zap.Int("id", int(f.ID())), zap.String("name", f.Name))
}

// Holds reports whether the simulation currently owns the fighter's motion.
func (a *Authority) Holds(f *arena.Fighter) bool {
	return f != nil && f.Authority == arena.AuthoritySimulation
}
