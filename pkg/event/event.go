// pkg/event/event.go
package event

import (
	"sort"
	"sync"
)

// Type represents the type of event
type Type string

// Simulation lifecycle event types
const (
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
	SimulationPaused  Type = "simulation_paused"
	SimulationResumed Type = "simulation_resumed"
	SimulationFailed  Type = "simulation_failed"
	StepCompleted     Type = "step_completed"
	ViewportChanged   Type = "viewport_changed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed later.
type Subscription struct {
	ID        uint64
	EventType Type
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type]map[uint64]Handler
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type]map[uint64]Handler),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[eventType][id] = handler

	return &Subscription{ID: id, EventType: eventType}
}

// Unsubscribe removes a handler. It reports whether the subscription was found.
func (b *Bus) Unsubscribe(sub *Subscription) bool {
	if sub == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.handlers[sub.EventType]
	if !ok {
		return false
	}
	if _, ok := handlers[sub.ID]; !ok {
		return false
	}
	delete(handlers, sub.ID)
	if len(handlers) == 0 {
		delete(b.handlers, sub.EventType)
	}
	return true
}

// HandlerCount returns the number of handlers for an event type
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish sends an event to all subscribed handlers in subscription order.
// A nil bus or event is ignored.
func (b *Bus) Publish(event Event) {
	if b == nil || event == nil {
		return
	}

	b.mu.RLock()
	registered := b.handlers[event.GetType()]
	ids := make([]uint64, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = registered[id]
	}
	b.mu.RUnlock()

	// handlers may publish or subscribe themselves, so call them unlocked
	for _, handler := range handlers {
		handler(event)
	}
}

// StepEvent is published after every completed step.
type StepEvent struct {
	BaseEvent
	Tick    uint64
	Elapsed float64 // simulated seconds
}

// NewStepEvent creates a new step event
func NewStepEvent(source interface{}, tick uint64, elapsed float64) *StepEvent {
	return &StepEvent{
		BaseEvent: BaseEvent{
			EventType: StepCompleted,
			Source:    source,
		},
		Tick:    tick,
		Elapsed: elapsed,
	}
}

// FailureEvent carries the error that halted the simulation.
type FailureEvent struct {
	BaseEvent
	Tick uint64
	Err  error
}

// NewFailureEvent creates a new failure event
func NewFailureEvent(source interface{}, tick uint64, err error) *FailureEvent {
	return &FailureEvent{
		BaseEvent: BaseEvent{
			EventType: SimulationFailed,
			Source:    source,
		},
		Tick: tick,
		Err:  err,
	}
}

// ViewportEvent describes the view after a pan, zoom or reset.
type ViewportEvent struct {
	BaseEvent
	Zoom    float64
	OffsetX float64 // pixels
	OffsetY float64
}

// NewViewportEvent creates a new viewport event
func NewViewportEvent(source interface{}, zoom, offsetX, offsetY float64) *ViewportEvent {
	return &ViewportEvent{
		BaseEvent: BaseEvent{
			EventType: ViewportChanged,
			Source:    source,
		},
		Zoom:    zoom,
		OffsetX: offsetX,
		OffsetY: offsetY,
	}
}
