package review

import (
	"sync"

	"rentalintel/internal/pipeline"
)

// Hub fans run events out to websocket subscribers. Publish never blocks;
// a slow subscriber drops events rather than stalling the pipeline.
type Hub struct {
	mu   sync.Mutex
	subs map[chan pipeline.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan pipeline.Event]struct{})}
}

// Publish implements pipeline.EventSink.
func (h *Hub) Publish(e pipeline.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel must be called.
func (h *Hub) Subscribe() (<-chan pipeline.Event, func()) {
	ch := make(chan pipeline.Event, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
