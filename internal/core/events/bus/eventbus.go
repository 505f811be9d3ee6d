package bus

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// anyType is the internal key for SubscribeAll handlers.
const anyType EventType = "*"

type simpleEvent struct {
	typ    EventType
	source string
	at     float64
	data   any
}

func (e simpleEvent) Type() EventType { return e.typ }
func (e simpleEvent) Source() string  { return e.source }
func (e simpleEvent) Time() float64   { return e.at }
func (e simpleEvent) Data() any       { return e.data }

// NewEvent creates an Event.
func NewEvent(typ EventType, source string, at float64, data any) Event {
	return simpleEvent{typ: typ, source: source, at: at, data: data}
}

type subscription struct {
	id        string
	eventType EventType
	handler   EventHandler
	seq       uint64
	active    bool
	cancel    func()
}

func (s *subscription) ID() string           { return s.id }
func (s *subscription) EventType() EventType { return s.eventType }
func (s *subscription) IsActive() bool       { return s.active }
func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
	return nil
}

type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]*subscription
	nextSeq   uint64
	metrics   Metrics
	observers map[Observer]struct{}
}

// New creates an empty bus.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[EventType][]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver(event)
}

func (b *inMemoryBus) Subscribe(eventType EventType, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("bus: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	s := &subscription{
		id:        uuid.NewString(),
		eventType: eventType,
		handler:   handler,
		seq:       b.nextSeq,
		active:    true,
	}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, other := range subs {
			if other == s {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		s.active = false
	}
	b.handlers[eventType] = append(b.handlers[eventType], s)
	return s, nil
}

func (b *inMemoryBus) SubscribeAll(handler EventHandler) (Subscription, error) {
	return b.Subscribe(anyType, handler)
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// deliver runs typed handlers then catch-all handlers, each group in
// subscription order.
func (b *inMemoryBus) deliver(event Event) error {
	etype := event.Type()

	b.mu.RLock()
	typed := b.handlers[etype]
	all := b.handlers[anyType]
	subs := make([]*subscription, 0, len(typed)+len(all))
	subs = append(subs, typed...)
	if etype != anyType {
		subs = append(subs, all...)
	}
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(etype, event)
	}

	var joined error
	for _, s := range subs {
		if !s.active {
			continue
		}
		if err := s.handler(event); err != nil {
			joined = errors.Join(joined, err)
		}
	}

	if len(observers) > 0 {
		for _, obs := range observers {
			obs.OnDelivered(etype, len(subs), joined)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(len(subs))
		if joined != nil {
			b.metrics.Errors++
		}
		var active uint64
		for _, list := range b.handlers {
			active += uint64(len(list))
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return joined
}
