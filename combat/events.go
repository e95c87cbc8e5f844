package combat

import (
	"time"

	"github.com/milk9111/crownclash/arena"
)

// HitEvent is raised once per resolved swing, after the hit pipeline has
// run. Consumers (scoring, VFX, audio) treat it as fire-and-forget; nothing
// a subscriber does rolls the hit back.
type HitEvent struct {
	Attacker arena.Ref
	Target   arena.Ref
	At       time.Time
}

// HitHandler handles hit events.
type HitHandler func(evt HitEvent)

// Emitter fans hit events out to subscribers. Subscribers run on the
// simulation goroutine with the world lock held, so they should stay short
// and must not call back into the combat core.
type Emitter struct {
	handlers []HitHandler
}

// Subscribe registers a handler for every future hit.
func (e *Emitter) Subscribe(fn HitHandler) {
	if e == nil || fn == nil {
		return
	}
	e.handlers = append(e.handlers, fn)
}

// Emit sends an event to all handlers.
func (e *Emitter) Emit(evt HitEvent) {
	if e == nil || len(e.handlers) == 0 {
		return
	}
	for _, h := range e.handlers {
		if h != nil {
			h(evt)
		}
	}
}
