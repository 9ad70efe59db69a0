package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Event is a single publication on a Bus.
type Event struct {
	Name Name
	Args []any
	At   time.Time
}

// Arg returns the i-th argument or nil when absent.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Handler receives events. Handlers run on the emitting goroutine.
type Handler func(ctx context.Context, ev Event)

// Option customises a Bus.
type Option func(*Bus)

// WithClock overrides the timestamp source used for Event.At.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// Bus is a synchronous publish/subscribe hub. Catch-all handlers run before
// named handlers, each group in subscription order, so observers see nested
// emissions in the order they were published. Trailing catch-all handlers
// (OnAllAfter) run once the named handlers have returned. No lock is held
// while handlers run, so handlers may subscribe or emit re-entrantly.
type Bus struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID uint64
	named  map[Name][]*Subscription
	all    []*Subscription
	after  []*Subscription
}

// Subscription is returned by the subscribe methods and can be cancelled.
type Subscription struct {
	bus      *Bus
	id       uint64
	name     Name
	catchAll bool
	trailing bool
	once     bool
	fired    atomic.Bool
	canceled atomic.Bool
	handler  Handler
}

// NewBus constructs an empty Bus.
func NewBus(options ...Option) *Bus {
	b := &Bus{
		now:   time.Now,
		named: make(map[Name][]*Subscription),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// On subscribes h to every future emission of name.
func (b *Bus) On(name Name, h Handler) *Subscription {
	return b.subscribe(name, false, false, h, false)
}

// Once subscribes h to the next emission of name only.
func (b *Bus) Once(name Name, h Handler) *Subscription {
	return b.subscribe(name, false, true, h, false)
}

// OnAll subscribes h to every event published on the bus.
func (b *Bus) OnAll(h Handler) *Subscription {
	return b.subscribe("", true, false, h, false)
}

// OnAllAfter subscribes h to every event, delivered after the event's named
// handlers have returned. When at least one named handler ran, Event.At is
// re-read from the clock, so it marks the end of the nested work.
func (b *Bus) OnAllAfter(h Handler) *Subscription {
	return b.subscribe("", true, false, h, true)
}

func (b *Bus) subscribe(name Name, catchAll, once bool, h Handler, trailing bool) *Subscription {
	if h == nil {
		return &Subscription{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		bus:      b,
		id:       b.nextID,
		name:     name,
		catchAll: catchAll,
		trailing: trailing,
		once:     once,
		handler:  h,
	}
	switch {
	case trailing:
		b.after = append(b.after, sub)
	case catchAll:
		b.all = append(b.all, sub)
	default:
		b.named[name] = append(b.named[name], sub)
	}
	return sub
}

// Emit publishes name with args and returns after every handler has run.
func (b *Bus) Emit(ctx context.Context, name Name, args ...any) {
	if b == nil || name == "" {
		return
	}
	ev := Event{Name: name, Args: args, At: b.now()}

	b.mu.RLock()
	all := append([]*Subscription(nil), b.all...)
	named := append([]*Subscription(nil), b.named[name]...)
	after := append([]*Subscription(nil), b.after...)
	b.mu.RUnlock()

	for _, sub := range all {
		sub.deliver(ctx, ev)
	}
	ran := false
	for _, sub := range named {
		if sub.deliver(ctx, ev) {
			ran = true
		}
	}
	if len(after) == 0 {
		return
	}
	if ran {
		ev.At = b.now()
	}
	for _, sub := range after {
		sub.deliver(ctx, ev)
	}
}

func (s *Subscription) deliver(ctx context.Context, ev Event) bool {
	if s.canceled.Load() {
		return false
	}
	if s.once {
		if !s.fired.CompareAndSwap(false, true) {
			return false
		}
		s.Cancel()
	}
	s.handler(ctx, ev)
	return true
}

// Len reports the number of live subscriptions for name. An empty name counts
// catch-all subscriptions.
func (b *Bus) Len(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if name == "" {
		return len(b.all) + len(b.after)
	}
	return len(b.named[name])
}

// Cancel removes the subscription. Calling Cancel more than once is safe.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	if !s.canceled.CompareAndSwap(false, true) {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.trailing {
		b.after = removeSub(b.after, s.id)
		return
	}
	if s.catchAll {
		b.all = removeSub(b.all, s.id)
		return
	}
	remaining := removeSub(b.named[s.name], s.id)
	if len(remaining) == 0 {
		delete(b.named, s.name)
		return
	}
	b.named[s.name] = remaining
}

func removeSub(subs []*Subscription, id uint64) []*Subscription {
	out := subs[:0:0]
	for _, sub := range subs {
		if sub.id != id {
			out = append(out, sub)
		}
	}
	return out
}

// Relay re-emits every event published on src onto dst with its name scoped
// under prefix. Cancel the returned subscription to stop relaying.
func Relay(src, dst *Bus, prefix string) *Subscription {
	if src == nil || dst == nil {
		return &Subscription{}
	}
	return src.OnAll(func(ctx context.Context, ev Event) {
		dst.Emit(ctx, ev.Name.Prefixed(prefix), ev.Args...)
	})
}
