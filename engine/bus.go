package engine

import "sync"

type EventType int

type Event struct {
	Type    EventType
	Payload any
}

type HandlerFunc func(Event)

type subscriber struct {
	fn    HandlerFunc
	types map[EventType]bool // nil means all types
}

// EventBus is a synchronous in-process pub/sub bus. Handlers run on the
// emitter's goroutine, so they must not block.
type EventBus struct {
	mu   sync.RWMutex
	subs []subscriber
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a handler for all events.
func (b *EventBus) Subscribe(fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscriber{fn: fn})
}

// SubscribeTypes registers a handler for specific event types.
func (b *EventBus) SubscribeTypes(fn HandlerFunc, types ...EventType) {
	set := make(map[EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscriber{fn: fn, types: set})
}

func (b *EventBus) Emit(evt Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.types == nil || s.types[evt.Type] {
			s.fn(evt)
		}
	}
}
