package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	EventGameStarted      EventType = "GAME_STARTED"
	EventCardPlaced       EventType = "CARD_PLACED"
	EventCardCaptured     EventType = "CARD_CAPTURED"
	EventVertexControlled EventType = "VERTEX_CONTROLLED"
	EventLoopFormed       EventType = "LOOP_FORMED"
	EventHoleCreated      EventType = "HOLE_CREATED"
	EventTurnChanged      EventType = "TURN_CHANGED"
	EventTimeUpdated      EventType = "TIME_UPDATED"
	EventDrawOffered      EventType = "DRAW_OFFERED"
	EventGamePaused       EventType = "GAME_PAUSED"
	EventGameResumed      EventType = "GAME_RESUMED"
	EventGameEnded        EventType = "GAME_ENDED"
)

// Event is a single thing that happened in a game.
type Event struct {
	Type     EventType
	GameID   string
	Player   string            // colour name of the acting player, if any
	Cell     string            // affected cell, e.g. "d3"
	Card     string            // affected card, e.g. "P5"
	Amount   int               // numeric payload (turn, capture count, milliseconds)
	Data     string            // free-form payload (loop type, victory condition)
	Metadata map[string]string // additional key/value pairs
	Time     time.Time
}

// NewEvent creates an event with the common fields populated.
func NewEvent(eventType EventType, gameID, player string) Event {
	return Event{
		Type:     eventType,
		GameID:   gameID,
		Player:   player,
		Time:     time.Now(),
		Metadata: make(map[string]string),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  Listener
}

// EventBus is a synchronous publish/subscribe bus with optional type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  listener,
	})
	return handle
}

// Unsubscribe removes the listener identified by handle, typed or not.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := range listeners {
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every matching listener synchronously.
// Listeners must not subscribe or unsubscribe from inside the callback.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}
