package bus

import (
	"sync"
	"time"

	"github.com/openclaw/snapper/internal/monitoring"
	"github.com/openclaw/snapper/internal/resilience"
	"go.uber.org/zap"
)

// Handler receives a published message and the sender id, if any.
type Handler func(message interface{}, sender string)

type subscription struct {
	id      int
	handler Handler
	once    bool
}

// Bus implements the Message Bus: channel pub/sub plus named-method RPC.
type Bus struct {
	mu      sync.Mutex
	subs    map[string][]*subscription
	nextID  int
	methods *methodTable
	logger  *zap.Logger
	metrics *monitoring.Metrics

	breakersMu sync.Mutex
	breakers   map[resilience.Route]*resilience.Breaker
}

// New creates an empty Bus.
func New(logger *zap.Logger, metrics *monitoring.Metrics) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:     make(map[string][]*subscription),
		methods:  newMethodTable(),
		logger:   logger,
		metrics:  metrics,
		breakers: make(map[resilience.Route]*resilience.Breaker),
	}
}

// breakerFor returns the circuit breaker guarding (targetApp, method),
// creating one on first use. Three consecutive timeouts trip it.
func (b *Bus) breakerFor(targetApp, method string) *resilience.Breaker {
	route := resilience.Route{App: targetApp, Method: method}

	b.breakersMu.Lock()
	defer b.breakersMu.Unlock()
	if br, ok := b.breakers[route]; ok {
		return br
	}

	br := resilience.New(route, resilience.Settings{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(route resilience.Route, from, to resilience.State) {
			b.logger.Warn("bus circuit breaker state change",
				zap.String("target", route.String()), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	b.breakers[route] = br
	return br
}

// Subscribe registers handler on channel and returns an unsubscribe
// closure.
func (b *Bus) Subscribe(channel string, handler Handler) (unsubscribe func()) {
	return b.subscribe(channel, handler, false)
}

// SubscribeOnce registers handler to receive exactly one publication on
// channel, then removes itself.
func (b *Bus) SubscribeOnce(channel string, handler Handler) (unsubscribe func()) {
	return b.subscribe(channel, handler, true)
}

func (b *Bus) subscribe(channel string, handler Handler, once bool) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler, once: once}
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	return func() { b.unsubscribe(channel, sub.id) }
}

func (b *Bus) unsubscribe(channel string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, s := range subs {
		if s.id == id {
			b.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every subscriber on channel, in subscription order, with
// (message, sender). A handler that panics is logged and does not block
// remaining subscribers. One-shot subscriptions that fired are removed
// after the publish loop completes, in reverse index order, so the
// in-flight iteration never sees a shifted slice.
func (b *Bus) Publish(channel string, message interface{}, sender string) {
	b.mu.Lock()
	subs := make([]*subscription, len(b.subs[channel]))
	copy(subs, b.subs[channel])
	b.mu.Unlock()

	var fired []int
	for i, sub := range subs {
		b.invoke(channel, sub, message, sender)
		if sub.once {
			fired = append(fired, i)
		}
	}

	if len(fired) > 0 {
		b.mu.Lock()
		for i := len(fired) - 1; i >= 0; i-- {
			idx := fired[i]
			if idx < len(subs) {
				b.removeSub(channel, subs[idx].id)
			}
		}
		b.mu.Unlock()
	}

	if b.metrics != nil {
		b.metrics.BusPublishTotal.WithLabelValues(channel).Inc()
	}
}

// removeSub must be called with b.mu held.
func (b *Bus) removeSub(channel string, id int) {
	subs := b.subs[channel]
	for i, s := range subs {
		if s.id == id {
			b.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) invoke(channel string, sub *subscription, message interface{}, sender string) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("bus subscriber panicked",
				zap.String("channel", channel), zap.Any("recover", rec))
		}
	}()
	sub.handler(message, sender)
}

// GetSubscriberCount returns the current number of subscribers on channel.
func (b *Bus) GetSubscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

// Clear drops all subscriptions, method registrations, and circuit
// breakers. Requests already in flight are not cancelled: each still waits
// for its handler to return or for its own timeout.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.subs = make(map[string][]*subscription)
	b.mu.Unlock()
	b.methods.clear()

	b.breakersMu.Lock()
	b.breakers = make(map[resilience.Route]*resilience.Breaker)
	b.breakersMu.Unlock()
}
