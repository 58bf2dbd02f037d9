package coordinator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/xivdye/market-client/pkg/prices"
)

var eventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "market_events_emitted_total",
	Help: "Total coordinator events emitted by event name",
}, []string{"event"})

// Event names the coordinator broadcasts to UI consumers.
type Event string

const (
	EventPricesUpdated   Event = "prices-updated"
	EventScopeChanged    Event = "scope-changed"
	EventSettingsChanged Event = "settings-changed"
	EventFetchStarted    Event = "fetch-started"
	EventFetchCompleted  Event = "fetch-completed"
	EventFetchError      Event = "fetch-error"
)

// Event payloads.
type (
	// PricesUpdated carries the merged shared cache after a successful fetch.
	PricesUpdated struct {
		Prices       map[int64]prices.Record
		FetchedCount int
	}

	// ScopeChanged reports a market-region switch.
	ScopeChanged struct {
		Scope         string
		PreviousScope string
	}

	// SettingsChanged reports the effective settings after a change.
	SettingsChanged struct {
		Enabled    bool
		Categories prices.CategoryFilters
	}

	// FetchStarted reports how many items a fetch will request.
	FetchStarted struct {
		Count int
	}

	// FetchCompleted reports how many items resolved.
	FetchCompleted struct {
		Count int
	}

	// FetchError reports a fetch failure that survived retries.
	FetchError struct {
		Reason string
		Count  int
	}
)

// Handler receives one event payload.
type Handler func(payload any)

// emitter delivers events synchronously, in subscription order, on the
// goroutine that triggered the change. A panicking subscriber is recovered
// so the remaining subscribers still run.
type emitter struct {
	mu     sync.Mutex
	nextID int
	subs   map[Event][]subscription
	logger zerolog.Logger
}

type subscription struct {
	id      int
	handler Handler
}

func newEmitter(logger zerolog.Logger) *emitter {
	return &emitter{
		subs:   make(map[Event][]subscription),
		logger: logger,
	}
}

// subscribe registers handler for event and returns an unsubscribe func.
func (e *emitter) subscribe(event Event, handler Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs[event] = append(e.subs[event], subscription{id: id, handler: handler})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		subs := e.subs[event]
		for i, sub := range subs {
			if sub.id == id {
				e.subs[event] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// emit delivers payload to every subscriber of event.
func (e *emitter) emit(event Event, payload any) {
	e.mu.Lock()
	subs := make([]subscription, len(e.subs[event]))
	copy(subs, e.subs[event])
	e.mu.Unlock()

	eventsEmittedTotal.WithLabelValues(string(event)).Inc()

	for _, sub := range subs {
		e.deliver(event, sub, payload)
	}
}

func (e *emitter) deliver(event Event, sub subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("event", string(event)).
				Interface("panic", r).
				Msg("Event subscriber panicked")
		}
	}()
	sub.handler(payload)
}
