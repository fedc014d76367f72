package events

import "sync"

// DefaultSubscriptionBuffer is the channel depth for new subscribers.
const DefaultSubscriptionBuffer = 64

// Bus is an in-process publish/subscribe fan-out. Delivery is
// at-most-once per subscriber: a subscriber that falls behind its
// buffer loses events rather than blocking publishers. Per-subscriber
// ordering follows publish order.
type Bus struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	dropped uint64
	closed  bool
}

// Subscription is one subscriber's feed of events.
type Subscription struct {
	C   chan Event
	bus *Bus
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber. A non-positive buffer falls
// back to the default depth.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	sub := &Subscription{C: make(chan Event, buffer), bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.C)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish delivers the event to every current subscriber without
// blocking. Full subscriber channels drop the event.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.C <- e:
		default:
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were discarded due to slow
// subscribers.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close shuts down the bus and all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.C)
		delete(b.subs, sub)
	}
}

// Close removes the subscription from its bus and closes the channel.
func (s *Subscription) Close() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.C)
	}
}
