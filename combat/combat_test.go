package combat

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/config"
)

// newTestCore builds a world and combat core on a mock clock with the
// default tuning: range 10, duration 450ms, 5 samples, ragdoll 2s,
// impulse expiry 150ms, jump recovery 300ms.
func newTestCore(t *testing.T) (*arena.World, *Core, *clock.Mock) {
	t.Helper()
	store := config.NewStore(nil)
	world := arena.NewWorld(store.Current().Arena, zap.NewNop())
	mock := clock.NewMock()
	core := NewCore(world, nil, store, mock, zap.NewNop())
	return world, core, mock
}

// spawn adds a fighter at (x, y); y=1 rests the default 2-unit-tall
// fighter exactly on the ground segment.
func spawn(t *testing.T, w *arena.World, name string, x, y float64) *arena.Fighter {
	t.Helper()
	w.Lock()
	defer w.Unlock()
	f := w.Spawn(name, cp.Vector{X: x, Y: y})
	if f == nil {
		t.Fatalf("spawn %s failed", name)
	}
	return f
}

func startSwing(t *testing.T, w *arena.World, c *Core, f *arena.Fighter) {
	t.Helper()
	w.Lock()
	defer w.Unlock()
	if err := c.StartSwing(f); err != nil {
		t.Fatalf("StartSwing: %v", err)
	}
}

func cpUp(y float64) cp.Vector {
	return cp.Vector{X: 0, Y: y}
}

func countHits(c *Core) *int {
	n := new(int)
	c.Events().Subscribe(func(HitEvent) { *n++ })
	return n
}
