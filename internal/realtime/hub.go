package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flicky/bakery-api/internal/model"
)

const subscriberBuffer = 16

// Subscriber receives the order events its session may see: its own orders,
// or every order for admins.
type Subscriber struct {
	UserID uuid.UUID
	Admin  bool
	C      chan model.OrderEvent
}

func (s *Subscriber) wants(ev model.OrderEvent) bool {
	return s.Admin || s.UserID == ev.UserID
}

type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
	log  *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{}), log: log}
}

func (h *Hub) Subscribe(session *model.Session) *Subscriber {
	sub := &Subscriber{
		UserID: session.UserID,
		Admin:  session.IsAdmin(),
		C:      make(chan model.OrderEvent, subscriberBuffer),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	h.mu.Unlock()
}

// Broadcast never blocks. A subscriber whose buffer is full already has a
// pending re-fetch trigger, so the event is dropped for it.
func (h *Hub) Broadcast(ev model.OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.wants(ev) {
			continue
		}
		select {
		case sub.C <- ev:
		default:
			h.log.Debug("subscriber buffer full, event dropped", "user_id", sub.UserID, "order_id", ev.OrderID)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
