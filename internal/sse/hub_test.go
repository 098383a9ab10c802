package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehaus/wholesale-api/internal/models"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a := hub.Register("a")
	b := hub.Register("b")
	defer hub.Unregister("a")
	defer hub.Unregister("b")

	require.Equal(t, 2, hub.ClientCount())

	hub.Broadcast(&StockEvent{Event: EventStockChanged, ProductID: 7, Stock: 3, Timestamp: time.Now()})

	for _, client := range []*Client{a, b} {
		select {
		case data := <-client.Events:
			var ev StockEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			assert.Equal(t, EventStockChanged, ev.Event)
			assert.Equal(t, 7, ev.ProductID)
			assert.Equal(t, 3, ev.Stock)
		default:
			t.Fatalf("client %s received nothing", client.ID)
		}
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := hub.Register("slow")
	defer hub.Unregister("slow")

	// Fill the buffer past capacity; Broadcast must never block.
	for i := 0; i < 100; i++ {
		hub.Broadcast(&StockEvent{Event: EventStockChanged, ProductID: i, Timestamp: time.Now()})
	}
	assert.Equal(t, 64, len(c.Events))
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	c := hub.Register("x")
	hub.Unregister("x")

	assert.Zero(t, hub.ClientCount())
	_, open := <-c.Events
	assert.False(t, open)

	// Unregistering twice is harmless.
	hub.Unregister("x")
}

func TestHubNotifierSkipsWithoutClients(t *testing.T) {
	hub := NewHub()
	n := NewHubNotifier(hub)

	// No clients: both notifications are cheap no-ops.
	n.NotifyStockChanged(&models.ProductVariant{ID: 1, Stock: 5})
	n.NotifyOrderCreated(&models.Order{OrderNumber: "WHS-20250101-ABCD"})
}

func TestHubNotifierPayload(t *testing.T) {
	hub := NewHub()
	c := hub.Register("watch")
	defer hub.Unregister("watch")

	n := NewHubNotifier(hub)
	n.NotifyStockChanged(&models.ProductVariant{ID: 4, Reference: "REF-9", Size: "M", Stock: 6, ReservedStock: 2})

	select {
	case data := <-c.Events:
		var ev StockEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventStockChanged, ev.Event)
		assert.Equal(t, "REF-9", ev.Reference)
		assert.Equal(t, 6, ev.Stock)
		assert.Equal(t, 2, ev.ReservedStock)
	default:
		t.Fatal("no event received")
	}
}
