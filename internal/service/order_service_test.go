package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehaus/wholesale-api/internal/config"
	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/sse"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

type fakeOrderWriter struct {
	created     *models.Order
	items       []models.OrderItem
	converted   bool
	statuses    map[int]models.OrderStatus
	createErr   error
	existing    map[int]*models.Order
	updateCalls int
}

func newFakeOrderWriter() *fakeOrderWriter {
	return &fakeOrderWriter{
		statuses: make(map[int]models.OrderStatus),
		existing: make(map[int]*models.Order),
	}
}

func (w *fakeOrderWriter) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem, convertReservations bool, cartToken string) error {
	if w.createErr != nil {
		return w.createErr
	}
	order.ID = 1
	w.created = order
	w.items = items
	w.converted = convertReservations
	return nil
}

func (w *fakeOrderWriter) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if o, ok := w.existing[id]; ok {
		return o, nil
	}
	return nil, errNoOrder
}

func (w *fakeOrderWriter) List(ctx context.Context, filter *repository.OrderFilter) (*repository.OrderListResult, error) {
	return &repository.OrderListResult{}, nil
}

func (w *fakeOrderWriter) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error {
	w.updateCalls++
	w.statuses[id] = status
	return nil
}

var errNoOrder = errors.New("no order")

type fakeNotifier struct {
	customerSent int
	adminSent    int
	customerErr  error
	adminErr     error
}

func (n *fakeNotifier) SendCustomerConfirmation(ctx context.Context, order *models.Order) (string, error) {
	if n.customerErr != nil {
		return "", n.customerErr
	}
	n.customerSent++
	return "msg-123", nil
}

func (n *fakeNotifier) SendAdminNotification(ctx context.Context, order *models.Order) (string, error) {
	if n.adminErr != nil {
		return "", n.adminErr
	}
	n.adminSent++
	return "msg-456", nil
}

func seededCartStore(t *testing.T, token string) *fakeCartStore {
	t.Helper()
	store := newFakeCartStore()
	require.NoError(t, store.Save(context.Background(), &models.Cart{
		Token: token,
		Items: []models.CartItem{
			{ProductID: 1, Reference: "REF-100", Size: "M", Description: "Linen shirt", WholesalePrice: 12.50, Quantity: 4, Stock: 10},
			{ProductID: 2, Reference: "REF-100", Size: "L", Description: "Linen shirt", WholesalePrice: 12.50, Quantity: 2, Stock: 3},
		},
	}))
	return store
}

func newTestOrderService(t *testing.T, policy config.ReservationPolicy) (*OrderService, *fakeOrderWriter, *fakeCartStore, *fakeNotifier) {
	t.Helper()
	writer := newFakeOrderWriter()
	store := seededCartStore(t, "tok-1")
	notifier := &fakeNotifier{}
	svc := NewOrderService(writer, store, &fakeVariantReader{variants: testVariants()}, notifier, &sse.NopNotifier{}, policy)
	return svc, writer, store, notifier
}

func validCustomer() models.CustomerInfo {
	return models.CustomerInfo{Name: "Jordan Shopkeeper", Email: "Jordan@Example.com", Company: "Corner Store"}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc, writer, store, notifier := newTestOrderService(t, config.ReservationOptimistic)

		result, err := svc.Submit(ctx, "tok-1", validCustomer())
		require.NoError(t, err)
		require.NotNil(t, result.Order)

		assert.Equal(t, models.OrderStatusPending, result.Order.Status)
		assert.Equal(t, "jordan@example.com", result.Order.CustomerEmail)
		assert.Equal(t, 75.0, result.Order.TotalAmount)
		assert.True(t, strings.HasPrefix(result.Order.OrderNumber, "WHS-"))
		assert.False(t, writer.converted)

		require.Len(t, writer.items, 2)
		assert.Equal(t, "REF-100", writer.items[0].Reference)
		assert.Equal(t, 50.0, writer.items[0].TotalPrice)

		assert.Equal(t, "msg-123", result.EmailID)
		assert.Empty(t, result.Warning)
		assert.Equal(t, 1, notifier.customerSent)
		assert.Equal(t, 1, notifier.adminSent)

		// Cart is gone after submission.
		_, err = store.Get(ctx, "tok-1")
		assert.ErrorIs(t, err, utils.ErrCartNotFound)
	})

	t.Run("eager policy converts reservations", func(t *testing.T) {
		svc, writer, _, _ := newTestOrderService(t, config.ReservationEager)
		_, err := svc.Submit(ctx, "tok-1", validCustomer())
		require.NoError(t, err)
		assert.True(t, writer.converted)
	})

	t.Run("missing name", func(t *testing.T) {
		svc, writer, _, _ := newTestOrderService(t, config.ReservationOptimistic)
		_, err := svc.Submit(ctx, "tok-1", models.CustomerInfo{Email: "a@b.com"})
		assert.ErrorIs(t, err, utils.ErrValidation)
		assert.Nil(t, writer.created)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc, _, _, _ := newTestOrderService(t, config.ReservationOptimistic)
		for _, email := range []string{"", "nope", "@start", "end@"} {
			_, err := svc.Submit(ctx, "tok-1", models.CustomerInfo{Name: "A", Email: email})
			assert.ErrorIs(t, err, utils.ErrValidation, email)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		svc, writer, store, _ := newTestOrderService(t, config.ReservationOptimistic)
		require.NoError(t, store.Save(ctx, &models.Cart{Token: "empty", Items: []models.CartItem{}}))

		_, err := svc.Submit(ctx, "empty", validCustomer())
		assert.ErrorIs(t, err, utils.ErrValidation)
		assert.Nil(t, writer.created)
	})

	t.Run("unknown cart", func(t *testing.T) {
		svc, _, _, _ := newTestOrderService(t, config.ReservationOptimistic)
		_, err := svc.Submit(ctx, "missing", validCustomer())
		assert.ErrorIs(t, err, utils.ErrCartNotFound)
	})

	t.Run("insufficient stock surfaces as conflict", func(t *testing.T) {
		svc, writer, _, _ := newTestOrderService(t, config.ReservationOptimistic)
		writer.createErr = &utils.InsufficientStockError{ProductID: 2, Remaining: 1}

		_, err := svc.Submit(ctx, "tok-1", validCustomer())
		assert.ErrorIs(t, err, utils.ErrInsufficientStock)
	})

	t.Run("other persistence failures are wrapped", func(t *testing.T) {
		svc, writer, _, _ := newTestOrderService(t, config.ReservationOptimistic)
		writer.createErr = errors.New("connection reset")

		_, err := svc.Submit(ctx, "tok-1", validCustomer())
		assert.ErrorIs(t, err, utils.ErrPersistence)
	})

	t.Run("email failure keeps the order and warns", func(t *testing.T) {
		svc, writer, _, notifier := newTestOrderService(t, config.ReservationOptimistic)
		notifier.customerErr = errors.New("smtp down")

		result, err := svc.Submit(ctx, "tok-1", validCustomer())
		require.NoError(t, err)
		assert.NotNil(t, writer.created)
		assert.NotEmpty(t, result.Warning)
		assert.Empty(t, result.EmailID)
	})
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusPending, models.OrderStatusDelivered, false},
		{models.OrderStatusConfirmed, models.OrderStatusShipped, true},
		{models.OrderStatusConfirmed, models.OrderStatusCancelled, true},
		{models.OrderStatusConfirmed, models.OrderStatusPending, false},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			writer := newFakeOrderWriter()
			writer.existing[1] = &models.Order{ID: 1, Status: tt.from}
			svc := NewOrderService(writer, newFakeCartStore(), &fakeVariantReader{variants: testVariants()}, &fakeNotifier{}, &sse.NopNotifier{}, config.ReservationOptimistic)

			order, err := svc.UpdateStatus(ctx, 1, tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, order.Status)
				assert.Equal(t, tt.to, writer.statuses[1])
			} else {
				assert.ErrorIs(t, err, utils.ErrInvalidStatusTransition)
				assert.Zero(t, writer.updateCalls)
			}
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		writer := newFakeOrderWriter()
		writer.existing[1] = &models.Order{ID: 1, Status: models.OrderStatusPending}
		svc := NewOrderService(writer, newFakeCartStore(), &fakeVariantReader{variants: testVariants()}, &fakeNotifier{}, &sse.NopNotifier{}, config.ReservationOptimistic)

		_, err := svc.UpdateStatus(ctx, 1, "archived")
		assert.ErrorIs(t, err, utils.ErrInvalidStatusTransition)
	})
}

func TestGenerateOrderNumber(t *testing.T) {
	n := generateOrderNumber()
	parts := strings.Split(n, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "WHS", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 4)
}
