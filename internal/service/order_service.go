package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/config"
	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/sse"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// OrderWriter is the persistence the order flow needs.
type OrderWriter interface {
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem, convertReservations bool, cartToken string) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	List(ctx context.Context, filter *repository.OrderFilter) (*repository.OrderListResult, error)
	UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error
}

// Notifier dispatches the transactional emails after submission.
type Notifier interface {
	SendCustomerConfirmation(ctx context.Context, order *models.Order) (string, error)
	SendAdminNotification(ctx context.Context, order *models.Order) (string, error)
}

// OrderService runs the submission flow and the admin-side order lifecycle.
type OrderService struct {
	orders        OrderWriter
	carts         CartStore
	products      VariantReader
	notifications Notifier
	events        sse.StockNotifier
	policy        config.ReservationPolicy
}

// NewOrderService constructs an OrderService.
func NewOrderService(orders OrderWriter, carts CartStore, products VariantReader, notifications Notifier, events sse.StockNotifier, policy config.ReservationPolicy) *OrderService {
	return &OrderService{
		orders:        orders,
		carts:         carts,
		products:      products,
		notifications: notifications,
		events:        events,
		policy:        policy,
	}
}

// SubmitResult is returned to the handler after a successful submission.
// Warning is set when the order committed but a notification failed.
type SubmitResult struct {
	Order   *models.Order
	EmailID string
	Warning string
}

// Submit validates the customer and cart, persists the order atomically with
// the stock deduction, then clears the cart and fires the notifications.
// Email failure never rolls anything back: the order stands and the caller
// gets a warning instead.
func (s *OrderService) Submit(ctx context.Context, cartToken string, info models.CustomerInfo) (*SubmitResult, error) {
	if err := validateCustomer(info); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, cartToken)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, &utils.ValidationError{Field: "cart", Message: "cart is empty"}
	}

	order := &models.Order{
		OrderNumber:     generateOrderNumber(),
		CustomerName:    strings.TrimSpace(info.Name),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(info.Email)),
		CustomerCompany: strings.TrimSpace(info.Company),
		CustomerPhone:   strings.TrimSpace(info.Phone),
		TotalAmount:     cart.TotalAmount(),
		Status:          models.OrderStatusPending,
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID:   ci.ProductID,
			Reference:   ci.Reference,
			Size:        ci.Size,
			Description: ci.Description,
			Quantity:    ci.Quantity,
			UnitPrice:   ci.WholesalePrice,
			TotalPrice:  ci.WholesalePrice * float64(ci.Quantity),
		})
	}

	convert := s.policy == config.ReservationEager
	if err := s.orders.CreateWithItems(ctx, order, items, convert, cartToken); err != nil {
		if errors.Is(err, utils.ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistence, err)
	}

	// The order is committed; everything below is best-effort.
	if err := s.carts.Delete(ctx, cartToken); err != nil {
		log.Warn().Err(err).Str("cart_token", cartToken).Msg("Failed to drop cart after submission")
	}

	s.events.NotifyOrderCreated(order)
	for i := range items {
		if v, err := s.products.GetByID(ctx, items[i].ProductID); err == nil {
			s.events.NotifyStockChanged(v)
		}
	}

	result := &SubmitResult{Order: order}
	emailID, err := s.notifications.SendCustomerConfirmation(ctx, order)
	if err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Customer confirmation email failed")
		result.Warning = "order placed, confirmation email could not be sent"
	} else {
		result.EmailID = emailID
	}
	if _, err := s.notifications.SendAdminNotification(ctx, order); err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Admin notification email failed")
		if result.Warning == "" {
			result.Warning = "order placed, admin notification could not be sent"
		}
	}

	return result, nil
}

// GetOrder retrieves a full order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders for the admin panel.
func (s *OrderService) ListOrders(ctx context.Context, filter *repository.OrderFilter) (*repository.OrderListResult, error) {
	return s.orders.List(ctx, filter)
}

// validStatusTransitions defines the allowed order lifecycle state machine.
var validStatusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

// UpdateStatus advances an order through the lifecycle state machine.
// Cancelling restores the stock of every item.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, utils.ErrInvalidStatusTransition
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range validStatusTransitions[order.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, utils.ErrInvalidStatusTransition
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistence, err)
	}
	order.Status = status

	if status == models.OrderStatusCancelled {
		for i := range order.Items {
			if v, err := s.products.GetByID(ctx, order.Items[i].ProductID); err == nil {
				s.events.NotifyStockChanged(v)
			}
		}
	}

	return order, nil
}

// validateCustomer enforces the required customer fields at the boundary.
func validateCustomer(info models.CustomerInfo) error {
	if strings.TrimSpace(info.Name) == "" {
		return &utils.ValidationError{Field: "name", Message: "name is required"}
	}
	email := strings.TrimSpace(info.Email)
	if email == "" {
		return &utils.ValidationError{Field: "email", Message: "email is required"}
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return &utils.ValidationError{Field: "email", Message: "email is invalid"}
	}
	return nil
}

// generateOrderNumber creates a human-readable order number: WHS-YYYYMMDD-XXXX.
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("WHS-%s-%s", date, suffix)
}
