package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/logging"
)

const sinkBuffer = 16

// Sink is one connected terminal. Events arrive on C; a sink that stops
// draining loses events rather than blocking the hub.
type Sink struct {
	C chan Event

	businessID uuid.UUID
	audiences  map[Audience]struct{}
}

type room struct {
	businessID uuid.UUID
	audience   Audience
}

// Hub is the in-process dispatcher: a typed mapping from
// (business, audience) to the set of connected sinks.
type Hub struct {
	mu    sync.RWMutex
	rooms map[room]map[*Sink]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: map[room]map[*Sink]struct{}{}}
}

func (h *Hub) Subscribe(businessID uuid.UUID, audiences ...Audience) *Sink {
	s := &Sink{
		C:          make(chan Event, sinkBuffer),
		businessID: businessID,
		audiences:  make(map[Audience]struct{}, len(audiences)),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, a := range audiences {
		s.audiences[a] = struct{}{}
		rm := room{businessID: businessID, audience: a}
		if h.rooms[rm] == nil {
			h.rooms[rm] = map[*Sink]struct{}{}
		}
		h.rooms[rm][s] = struct{}{}
	}
	return s
}

func (h *Hub) Unsubscribe(s *Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for a := range s.audiences {
		rm := room{businessID: s.businessID, audience: a}
		delete(h.rooms[rm], s)
		if len(h.rooms[rm]) == 0 {
			delete(h.rooms, rm)
		}
	}
	close(s.C)
}

// Dispatch delivers the event to every sink in the event's audience groups.
// Delivery is non-blocking: a full sink drops the event with a warn log. A
// sink subscribed to several matching groups still receives the event once.
func (h *Hub) Dispatch(ctx context.Context, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := map[*Sink]struct{}{}
	for _, a := range Route(ev.Type) {
		rm := room{businessID: ev.BusinessID, audience: a}
		for s := range h.rooms[rm] {
			if _, done := delivered[s]; done {
				continue
			}
			delivered[s] = struct{}{}
			select {
			case s.C <- ev:
			default:
				logging.FromContext(ctx).Warn("notify_drop",
					"event", string(ev.Type), "audience", string(a), "business_id", ev.BusinessID)
			}
		}
	}
}
