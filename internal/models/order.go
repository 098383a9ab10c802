package models

import "time"

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is a known lifecycle state.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a submitted wholesale order.
type Order struct {
	ID              int         `db:"id" json:"id"`
	OrderNumber     string      `db:"order_number" json:"orderNumber"`
	CustomerID      *int        `db:"customer_id" json:"customerId,omitempty"`
	CustomerName    string      `db:"customer_name" json:"customerName"`
	CustomerEmail   string      `db:"customer_email" json:"customerEmail"`
	CustomerCompany string      `db:"customer_company" json:"customerCompany,omitempty"`
	CustomerPhone   string      `db:"customer_phone" json:"customerPhone,omitempty"`
	TotalAmount     float64     `db:"total_amount" json:"totalAmount"`
	Status          OrderStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is one line of an order. Reference/size/description are copied
// from the variant at submission time so the order stays readable after
// catalog edits.
type OrderItem struct {
	ID          int     `db:"id" json:"id"`
	OrderID     int     `db:"order_id" json:"-"`
	ProductID   int     `db:"product_id" json:"productId"`
	Reference   string  `db:"reference" json:"reference"`
	Size        string  `db:"size" json:"size"`
	Description string  `db:"description" json:"description"`
	Quantity    int     `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unitPrice"`
	TotalPrice  float64 `db:"total_price" json:"totalPrice"`
}
