package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Audience{AudienceKitchen}, Route(EventOrderSentKitchen))
	assert.Equal(t, []Audience{AudienceBar}, Route(EventOrderSentBar))
	assert.Contains(t, Route(EventOrderPaid), AudienceCashier)
	assert.NotContains(t, Route(EventOrderPaid), AudienceKitchen)
	assert.Empty(t, Route("made.up"))
}

func TestHub_RoutesByAudience(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	biz := uuid.New()

	kitchen := hub.Subscribe(biz, AudienceKitchen)
	bar := hub.Subscribe(biz, AudienceBar)
	defer hub.Unsubscribe(kitchen)
	defer hub.Unsubscribe(bar)

	hub.Dispatch(context.Background(), NewEvent(EventOrderSentKitchen, biz, nil))

	select {
	case ev := <-kitchen.C:
		assert.Equal(t, EventOrderSentKitchen, ev.Type)
	default:
		t.Fatal("kitchen sink should have received the event")
	}
	assert.Empty(t, bar.C, "bar must not see kitchen traffic")
}

func TestHub_ScopedToBusiness(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	mine, theirs := uuid.New(), uuid.New()

	sink := hub.Subscribe(mine, AudienceKitchen)
	defer hub.Unsubscribe(sink)

	hub.Dispatch(context.Background(), NewEvent(EventOrderSentKitchen, theirs, nil))
	assert.Empty(t, sink.C)
}

func TestHub_MultiAudienceSinkReceivesOnce(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	biz := uuid.New()

	sink := hub.Subscribe(biz, AudienceKitchen, AudienceBar, AudienceWaiter)
	defer hub.Unsubscribe(sink)

	// item.status routes to kitchen, bar and waiter among others; one delivery.
	hub.Dispatch(context.Background(), NewEvent(EventItemStatus, biz, nil))
	assert.Len(t, sink.C, 1)
}

func TestHub_FullSinkDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	biz := uuid.New()

	sink := hub.Subscribe(biz, AudienceKitchen)
	defer hub.Unsubscribe(sink)

	// Never drained; once the buffer fills, Dispatch must still return.
	for i := 0; i < sinkBuffer+10; i++ {
		hub.Dispatch(context.Background(), NewEvent(EventOrderSentKitchen, biz, i))
	}
	assert.Len(t, sink.C, sinkBuffer)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	biz := uuid.New()

	sink := hub.Subscribe(biz, AudienceKitchen)
	hub.Unsubscribe(sink)

	_, open := <-sink.C
	require.False(t, open)

	// Dispatch after unsubscribe is a no-op, not a panic.
	hub.Dispatch(context.Background(), NewEvent(EventOrderSentKitchen, biz, nil))
}

func TestMulti(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	biz := uuid.New()
	sink := hub.Subscribe(biz, AudienceKitchen)
	defer hub.Unsubscribe(sink)

	m := Multi{hub, Discard{}}
	m.Dispatch(context.Background(), NewEvent(EventOrderSentKitchen, biz, nil))
	assert.Len(t, sink.C, 1)
}
