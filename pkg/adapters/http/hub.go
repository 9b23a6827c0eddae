package http

import (
	"sync"

	"github.com/aretw0/tick/pkg/domain"
)

// subscriberBuffer is the number of diffs a slow subscriber may lag behind.
const subscriberBuffer = 16

// Hub fans session diffs out to subscribers. A subscriber that lags behind
// loses diffs rather than stalling turns.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	conversation string
	ch           chan *domain.SessionDiff
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe returns the diffs of one conversation, or of all when
// conversation is empty, and the function ending the subscription.
func (h *Hub) Subscribe(conversation string) (<-chan *domain.SessionDiff, func()) {
	sub := &subscriber{conversation: conversation, ch: make(chan *domain.SessionDiff, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[sub] = struct{}{}

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers the diff to the matching subscribers without blocking.
func (h *Hub) Publish(diff *domain.SessionDiff) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.conversation != "" && sub.conversation != diff.ConversationID {
			continue
		}
		select {
		case sub.ch <- diff:
		default:
		}
	}
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}
