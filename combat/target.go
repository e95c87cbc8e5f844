package combat

import (
	"math"

	"github.com/milk9111/crownclash/arena"
)

// FindTarget returns the nearest live opponent within rng of the attacker,
// or false if none qualifies. Ragdolled fighters are still targetable.
// Exact distance ties break toward the lower fighter id so repeated scans
// over the same roster always pick the same fighter.
//
// Pure query: no mutation, safe to call concurrently and redundantly.
func FindTarget(roster []*arena.Fighter, attacker *arena.Fighter, rng float64) (*arena.Fighter, bool) {
	if attacker == nil || rng <= 0 {
		return nil, false
	}
	origin := attacker.Position()

	var best *arena.Fighter
	bestDist := math.Inf(1)
	for _, f := range roster {
		if f == nil || f.Ref() == attacker.Ref() || !f.Alive() {
			continue
		}
		d := f.Position().Distance(origin)
		if d > rng {
			continue
		}
		if d < bestDist || (d == bestDist && best != nil && f.ID() < best.ID()) {
			best = f
			bestDist = d
		}
	}
	return best, best != nil
}
