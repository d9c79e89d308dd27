package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification event.
type Kind string

const (
	KindDocumentGenerated   Kind = "document_generated"
	KindEnrollmentActivated Kind = "enrollment_activated"
	KindRoomStarted         Kind = "room_started"
)

// Notification is one event destined for a user (or everyone when UserID is empty).
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"` // empty = broadcast
	Kind      Kind              `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"` // UTC
}

// Notifier is anything services can publish notifications to.
type Notifier interface {
	Publish(n Notification) Notification
}

const recentCap = 100

// Hub is an in-process notification fan-out. Delivery to a subscriber is
// non-blocking: a slow consumer misses events rather than stalling publishers.
// The actual push transport sits outside this core; the hub only keeps the
// subscription and recent-history bookkeeping.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Notification]struct{} // userID -> channels; "" = broadcast listeners
	recent []Notification
}

var _ Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan Notification]struct{}),
	}
}

// Publish stamps and fans the notification out to the target user's
// subscribers (all subscribers for a broadcast), then records it.
func (h *Hub) Publish(n Notification) Notification {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, n)
	if len(h.recent) > recentCap {
		h.recent = h.recent[len(h.recent)-recentCap:]
	}

	deliver := func(chans map[chan Notification]struct{}) {
		for ch := range chans {
			select {
			case ch <- n:
			default: // drop for slow subscribers
			}
		}
	}
	if n.UserID == "" {
		for _, chans := range h.subs {
			deliver(chans)
		}
	} else {
		deliver(h.subs[n.UserID])
		deliver(h.subs[""])
	}
	return n
}

// Subscribe registers a listener for one user's notifications (userID "" for
// everything). The returned cancel func must be called to release the channel.
func (h *Hub) Subscribe(userID string) (<-chan Notification, func()) {
	ch := make(chan Notification, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Notification]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[userID], ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Recent returns the latest notifications visible to userID (their own plus
// broadcasts), newest first, capped at limit (0 = all retained).
func (h *Hub) Recent(userID string, limit int) []Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Notification
	for i := len(h.recent) - 1; i >= 0; i-- {
		n := h.recent[i]
		if n.UserID == "" || n.UserID == userID {
			out = append(out, n)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}
