package coordinator

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestEmitter_DeliveryOrder(t *testing.T) {
	e := newEmitter(zerolog.Nop())

	var order []int
	e.subscribe(EventPricesUpdated, func(any) { order = append(order, 1) })
	e.subscribe(EventPricesUpdated, func(any) { order = append(order, 2) })
	e.subscribe(EventPricesUpdated, func(any) { order = append(order, 3) })

	e.emit(EventPricesUpdated, nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

func TestEmitter_PanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	e := newEmitter(zerolog.Nop())

	var delivered []int
	e.subscribe(EventFetchStarted, func(any) { delivered = append(delivered, 1) })
	e.subscribe(EventFetchStarted, func(any) { panic("subscriber bug") })
	e.subscribe(EventFetchStarted, func(any) { delivered = append(delivered, 3) })

	e.emit(EventFetchStarted, nil)

	if len(delivered) != 2 || delivered[0] != 1 || delivered[1] != 3 {
		t.Errorf("delivered = %v, want [1 3]", delivered)
	}
}

func TestEmitter_Unsubscribe(t *testing.T) {
	e := newEmitter(zerolog.Nop())

	calls := 0
	unsubscribe := e.subscribe(EventScopeChanged, func(any) { calls++ })

	e.emit(EventScopeChanged, nil)
	unsubscribe()
	e.emit(EventScopeChanged, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1 after unsubscribe", calls)
	}

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestEmitter_PayloadDelivered(t *testing.T) {
	e := newEmitter(zerolog.Nop())

	var got any
	e.subscribe(EventFetchCompleted, func(payload any) { got = payload })

	e.emit(EventFetchCompleted, FetchCompleted{Count: 7})

	payload, ok := got.(FetchCompleted)
	if !ok || payload.Count != 7 {
		t.Errorf("payload = %v, want FetchCompleted{Count: 7}", got)
	}
}

func TestEmitter_EventsAreIndependent(t *testing.T) {
	e := newEmitter(zerolog.Nop())

	scopeCalls := 0
	e.subscribe(EventScopeChanged, func(any) { scopeCalls++ })

	e.emit(EventPricesUpdated, nil)

	if scopeCalls != 0 {
		t.Errorf("scope-changed handler ran for prices-updated emit")
	}
}
