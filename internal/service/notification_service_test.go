package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/utils"
	"github.com/tradehaus/wholesale-api/pkg/mailer"
)

type fakeSender struct {
	sent []*mailer.SendRequest
	err  error
}

func (s *fakeSender) Send(ctx context.Context, req *mailer.SendRequest) (*mailer.SendResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, req)
	return &mailer.SendResponse{ID: "msg-1", Status: "queued"}, nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderNumber:   "WHS-20250101-ABCD",
		CustomerName:  "Jordan Shopkeeper",
		CustomerEmail: "jordan@example.com",
		TotalAmount:   75,
		Items: []models.OrderItem{
			{Reference: "REF-100", Size: "M", Description: "Linen shirt", Quantity: 4, UnitPrice: 12.50, TotalPrice: 50},
			{Reference: "REF-100", Size: "L", Description: "Linen shirt", Quantity: 2, UnitPrice: 12.50, TotalPrice: 25},
		},
	}
}

func TestSendCustomerConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(sender, "orders@shop.example", "sales@shop.example")

	id, err := svc.SendCustomerConfirmation(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, sender.sent, 1)
	req := sender.sent[0]
	assert.Equal(t, "orders@shop.example", req.From)
	assert.Equal(t, "jordan@example.com", req.To)
	assert.Equal(t, "sales@shop.example", req.ReplyTo)
	assert.Contains(t, req.Subject, "WHS-20250101-ABCD")
	assert.Contains(t, req.HTML, "Jordan Shopkeeper")
	assert.Contains(t, req.HTML, "REF-100")
	assert.Contains(t, req.HTML, "75.00")
}

func TestSendAdminNotification(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(sender, "orders@shop.example", "sales@shop.example")

	_, err := svc.SendAdminNotification(context.Background(), sampleOrder())
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	req := sender.sent[0]
	assert.Equal(t, "sales@shop.example", req.To)
	assert.Contains(t, req.Subject, "Jordan Shopkeeper")
	assert.Contains(t, req.HTML, "jordan@example.com")
}

func TestSendFailureWrapsDispatchError(t *testing.T) {
	sender := &fakeSender{err: errors.New("provider down")}
	svc := NewNotificationService(sender, "orders@shop.example", "sales@shop.example")

	_, err := svc.SendCustomerConfirmation(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, utils.ErrDispatch)

	_, err = svc.SendAdminNotification(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, utils.ErrDispatch)
}
