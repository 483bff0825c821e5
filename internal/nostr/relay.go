package nostr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
)

// ErrNoRelays indicates that no relay could be reached.
var ErrNoRelays = errors.New("failed to connect to any relays")

const (
	defaultBaseBackoff = time.Second
	defaultMaxBackoff  = 30 * time.Second
	dmBufferSize       = 100
)

// RelayManager handles connections to multiple Nostr relays and feeds the
// gift-wrapped DMs addressed to the terminal into one channel.
type RelayManager struct {
	relayURLs   []string
	pubkeyHex   string
	relays      []*nostr.Relay
	mu          sync.RWMutex
	baseBackoff time.Duration
	maxBackoff  time.Duration

	dmEvents chan *nostr.Event // kind:1059 gift-wrapped DMs

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelayManager creates a new relay manager for the given relay URLs.
func NewRelayManager(relayURLs []string, pubkeyHex string) *RelayManager {
	return &RelayManager{
		relayURLs:   relayURLs,
		pubkeyHex:   pubkeyHex,
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
		dmEvents:    make(chan *nostr.Event, dmBufferSize),
	}
}

// Connect establishes connections to all configured relays and starts subscriptions.
func (rm *RelayManager) Connect(ctx context.Context) error {
	rm.ctx, rm.cancel = context.WithCancel(ctx)

	var connected int
	for _, url := range rm.relayURLs {
		relay, err := nostr.RelayConnect(rm.ctx, url)
		if err != nil {
			log.WithError(err).WithField("relay", url).Warn("relay connect failed")
			continue
		}

		rm.mu.Lock()
		rm.relays = append(rm.relays, relay)
		rm.mu.Unlock()

		connected++
		log.WithField("relay", url).Info("connected to relay")

		rm.wg.Add(1)
		go rm.subscribeRelay(relay)
	}

	if connected == 0 {
		return ErrNoRelays
	}

	log.Infof("connected to %d/%d relays", connected, len(rm.relayURLs))
	return nil
}

// subscribeRelay manages the DM subscription for a single relay with reconnection logic.
func (rm *RelayManager) subscribeRelay(relay *nostr.Relay) {
	defer rm.wg.Done()

	for {
		select {
		case <-rm.ctx.Done():
			return
		default:
		}

		sub, err := relay.Subscribe(rm.ctx, rm.filters())
		if err != nil {
			log.WithError(err).WithField("relay", relay.URL).Warn("subscription failed")
			if rm.reconnect(relay) {
				continue
			}
			return
		}

		log.WithField("relay", relay.URL).Debug("subscribed to DMs")

		if !rm.drain(sub) {
			return
		}
	}
}

// drain forwards subscription events until the subscription closes.
// It reports whether the caller should resubscribe.
func (rm *RelayManager) drain(sub *nostr.Subscription) bool {
	for {
		select {
		case <-rm.ctx.Done():
			sub.Unsub()
			return false

		case event, ok := <-sub.Events:
			if !ok {
				log.WithField("relay", sub.Relay.URL).Info("subscription closed, reconnecting")
				return rm.reconnect(sub.Relay)
			}
			rm.routeEvent(event)
		}
	}
}

func (rm *RelayManager) filters() []nostr.Filter {
	return []nostr.Filter{
		{
			Kinds: []int{nostr.KindGiftWrap},
			Tags:  nostr.TagMap{"p": []string{rm.pubkeyHex}},
		},
	}
}

// reconnect retries the relay connection with capped exponential backoff.
// Returns false once the manager is shutting down.
func (rm *RelayManager) reconnect(relay *nostr.Relay) bool {
	backoff := retry.WithCappedDuration(rm.maxBackoff, retry.NewExponential(rm.baseBackoff))

	err := retry.Do(rm.ctx, backoff, func(ctx context.Context) error {
		if err := relay.Connect(ctx); err != nil {
			log.WithError(err).WithField("relay", relay.URL).Debug("reconnect failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return false
	}

	log.WithField("relay", relay.URL).Info("reconnected to relay")
	return true
}

// routeEvent hands DM events to the consumer without blocking the relay.
func (rm *RelayManager) routeEvent(event *nostr.Event) {
	if event.Kind != nostr.KindGiftWrap {
		return
	}

	select {
	case rm.dmEvents <- event:
	default:
		log.WithField("event", event.ID).Warn("DM event channel full, dropping event")
	}
}

// DMEvents returns a channel of gift-wrapped DM events (kind:1059).
func (rm *RelayManager) DMEvents() <-chan *nostr.Event {
	return rm.dmEvents
}

// Publish sends an event to all connected relays.
func (rm *RelayManager) Publish(ctx context.Context, event *nostr.Event) error {
	rm.mu.RLock()
	relays := make([]*nostr.Relay, len(rm.relays))
	copy(relays, rm.relays)
	rm.mu.RUnlock()

	var lastErr error
	var published int

	for _, relay := range relays {
		if err := relay.Publish(ctx, *event); err != nil {
			lastErr = err
			log.WithError(err).WithField("relay", relay.URL).Warn("publish failed")
			continue
		}
		published++
	}

	if published == 0 {
		return fmt.Errorf("failed to publish to any relay: %w", lastErr)
	}

	log.WithFields(log.Fields{"event": event.ID, "relays": published}).Debug("published event")
	return nil
}

// Close gracefully shuts down all relay connections.
func (rm *RelayManager) Close() {
	if rm.cancel != nil {
		rm.cancel()
	}

	rm.wg.Wait()

	rm.mu.Lock()
	for _, relay := range rm.relays {
		_ = relay.Close()
	}
	rm.relays = nil
	rm.mu.Unlock()

	close(rm.dmEvents)

	log.Debug("relay manager closed")
}
