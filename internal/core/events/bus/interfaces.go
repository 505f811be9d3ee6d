package bus

// EventBus is an in-process pub/sub bus for gameplay events.
//
//   - Type-based fan-out: handlers subscribe by EventType; SubscribeAll
//     receives every event.
//   - Synchronous delivery: Publish runs handlers on the caller's goroutine,
//     in subscription order, so a frame's events are observed in the order
//     the frame produced them.
//   - Error aggregation: handler errors are joined and returned from Publish.
//   - Metrics are only collected while at least one observer is registered.
type EventBus interface {
	Publish(event Event) error

	Subscribe(eventType EventType, handler EventHandler) (Subscription, error)
	SubscribeAll(handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	GetMetrics() Metrics
}

// EventType is the routing key of an event.
type EventType string

// Gameplay event types.
const (
	EventPlaced     EventType = "track.placed"
	EventRecentered EventType = "track.recentered"
	EventReset      EventType = "game.reset"
	EventCalibrated EventType = "player.calibrated"
	EventJump       EventType = "player.jump"
	EventDuck       EventType = "player.duck"
	EventSpawn      EventType = "obstacle.spawn"
	EventScore      EventType = "game.score"
	EventMiss       EventType = "game.miss"
)

// Event is an immutable message. Time is the frame time in seconds at
// which the event happened.
type Event interface {
	Type() EventType
	Source() string
	Time() float64
	Data() any
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	EventType() EventType
	IsActive() bool
	Cancel() error
}

// Observer is notified about publishes and deliveries.
type Observer interface {
	OnPublish(eventType EventType, event Event)
	OnDelivered(eventType EventType, handlers int, err error)
}

// Metrics are counters maintained while observers are registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
