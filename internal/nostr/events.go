package nostr

import (
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// EventDeduplicator filters duplicate events that arrive from multiple relays.
// Events are deduplicated by ID and expired after a configurable TTL.
// It is the fast in-memory check in front of the persistent claim kept in
// the database.
type EventDeduplicator struct {
	seen map[string]time.Time
	ttl  time.Duration
	mu   sync.RWMutex
}

// NewEventDeduplicator creates a deduplicator with the given TTL.
// Events older than TTL are eligible for cleanup.
func NewEventDeduplicator(ttl time.Duration) *EventDeduplicator {
	ed := &EventDeduplicator{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
	return ed
}

// IsDuplicate returns true if this event ID has been seen before.
// If not a duplicate, marks the event as seen.
func (ed *EventDeduplicator) IsDuplicate(event *nostr.Event) bool {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	if _, exists := ed.seen[event.ID]; exists {
		return true
	}

	ed.seen[event.ID] = time.Now()
	return false
}

// Len returns the number of tracked event IDs.
func (ed *EventDeduplicator) Len() int {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return len(ed.seen)
}

// Cleanup removes entries older than TTL. Call periodically.
func (ed *EventDeduplicator) Cleanup() {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	cutoff := time.Now().Add(-ed.ttl)
	for id, seenAt := range ed.seen {
		if seenAt.Before(cutoff) {
			delete(ed.seen, id)
		}
	}
}

// StartCleanupLoop runs cleanup at regular intervals until done is closed.
func (ed *EventDeduplicator) StartCleanupLoop(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ed.Cleanup()
		}
	}
}
