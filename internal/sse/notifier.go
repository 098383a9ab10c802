package sse

import (
	"time"

	"github.com/tradehaus/wholesale-api/internal/models"
)

// StockNotifier is the interface services use to emit catalog change events.
type StockNotifier interface {
	NotifyStockChanged(v *models.ProductVariant)
	NotifyOrderCreated(order *models.Order)
}

// HubNotifier implements StockNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyStockChanged(v *models.ProductVariant) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&StockEvent{
		Event:         EventStockChanged,
		ProductID:     v.ID,
		Reference:     v.Reference,
		Size:          v.Size,
		Stock:         v.Stock,
		ReservedStock: v.ReservedStock,
		Timestamp:     time.Now(),
	})
}

func (n *HubNotifier) NotifyOrderCreated(order *models.Order) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&StockEvent{
		Event:       EventOrderCreated,
		OrderNumber: order.OrderNumber,
		Timestamp:   time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyStockChanged(v *models.ProductVariant) {}
func (n *NopNotifier) NotifyOrderCreated(order *models.Order)     {}
