package combat

import (
	"testing"

	"github.com/milk9111/crownclash/arena"
)

func TestAuthorityTakeAndReleaseAreIdempotent(t *testing.T) {
	world, core, _ := newTestCore(t)
	f := spawn(t, world, "f", 10, 1)
	auth := core.Authority()

	// releasing what is not held has no observable effect
	auth.Release(f)
	if f.Authority != arena.AuthorityLocal {
		t.Fatalf("release without hold changed the tag")
	}

	auth.Take(f)
	auth.Take(f)
	if f.Authority != arena.AuthoritySimulation || !auth.Holds(f) {
		t.Fatalf("authority not held after Take")
	}

	auth.Release(f)
	auth.Release(f)
	if f.Authority != arena.AuthorityLocal || auth.Holds(f) {
		t.Fatalf("authority still held after Release")
	}
}
