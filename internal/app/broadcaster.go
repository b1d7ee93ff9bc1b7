package app

import (
	"log"

	"live-quiz-service/internal/domain"
)

// hub fans snapshots out to the subscribers of one session. It is owned by
// the Session and only touched with the session lock held, so sessions never
// share a broadcast lock.
type hub struct {
	buffer  int
	version uint64
	subs    map[chan domain.Snapshot]struct{}
}

func newHub(buffer int) *hub {
	if buffer < 1 {
		buffer = 1
	}
	return &hub{
		buffer: buffer,
		subs:   make(map[chan domain.Snapshot]struct{}),
	}
}

// add registers a subscriber primed with the current snapshot. A subscriber
// to a finished session gets the final snapshot and a closed channel.
func (h *hub) add(initial domain.Snapshot, closed bool) chan domain.Snapshot {
	ch := make(chan domain.Snapshot, h.buffer)
	ch <- initial
	if closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

func (h *hub) remove(ch chan domain.Snapshot) {
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// publish never blocks. A subscriber whose buffer is full is dropped instead
// of skipping a snapshot, so every connected subscriber observes the same
// gapless sequence; a dropped one re-subscribes for the current state.
func (h *hub) publish(code string, snap domain.Snapshot) {
	for ch := range h.subs {
		select {
		case ch <- snap:
		default:
			log.Printf("[Broadcast] session %s: subscriber lagging at version %d, disconnecting", code, snap.Version)
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *hub) closeAll() {
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *hub) count() int {
	return len(h.subs)
}
