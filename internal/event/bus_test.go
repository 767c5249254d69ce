package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a, unsubA := bus.Subscribe()
	b, unsubB := bus.Subscribe()
	defer unsubA()
	defer unsubB()

	bus.Publish(Event{Type: TypeCardFlagged, CardID: 7})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case e := <-ch:
			assert.Equal(t, TypeCardFlagged, e.Type)
			assert.Equal(t, int64(7), e.CardID)
			assert.NotEmpty(t, e.ID)
			assert.False(t, e.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe()
	unsub()
	unsub()

	_, open := <-ch
	assert.False(t, open)

	// publishing after unsubscribe must not panic
	bus.Publish(Event{Type: TypeCardCreated})
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeReplyPosted})
	}
	require.Len(t, ch, subscriberBuffer)
}

func TestNopBus(t *testing.T) {
	var bus Bus = Nop{}
	bus.Publish(Event{Type: TypeCardCreated})
	ch, unsub := bus.Subscribe()
	defer unsub()
	_, open := <-ch
	assert.False(t, open)
}
