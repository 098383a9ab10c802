package models

import "time"

// CartItem is one selected variant in a cart. Stock is a snapshot of the
// variant's stock taken at add-time and used as the cap for quantity updates.
type CartItem struct {
	ProductID      int     `json:"productId"`
	Reference      string  `json:"reference"`
	Size           string  `json:"size"`
	Description    string  `json:"description"`
	WholesalePrice float64 `json:"wholesalePrice"`
	Quantity       int     `json:"quantity"`
	Stock          int     `json:"stock"`
}

// Cart is the server-side cart owned by a single storefront session.
// Items keep insertion order. Carts live in Redis and expire with their TTL.
type Cart struct {
	Token     string     `json:"token"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Find returns the item for productID or nil.
func (c *Cart) Find(productID int) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Remove deletes the item for productID, preserving the order of the rest.
func (c *Cart) Remove(productID int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Quantity returns the quantity currently carried for productID, 0 if absent.
func (c *Cart) Quantity(productID int) int {
	if it := c.Find(productID); it != nil {
		return it.Quantity
	}
	return 0
}

// TotalAmount is the exact sum of wholesale_price * quantity over all items.
func (c *Cart) TotalAmount() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].WholesalePrice * float64(c.Items[i].Quantity)
	}
	return total
}

// TotalUnits is the sum of quantities over all items.
func (c *Cart) TotalUnits() int {
	var n int
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}
