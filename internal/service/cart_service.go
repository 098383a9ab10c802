package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/config"
	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/sse"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// VariantReader looks up single variants for cart validation.
type VariantReader interface {
	GetByID(ctx context.Context, id int) (*models.ProductVariant, error)
}

// CartStore persists server-side carts by token.
type CartStore interface {
	Get(ctx context.Context, token string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, token string) error
}

// StockReserver adjusts reserved_stock in the catalog store. Only used under
// the eager reservation policy.
type StockReserver interface {
	Reserve(ctx context.Context, cartToken string, productID, qty int) error
	Release(ctx context.Context, cartToken string, productID, qty int) error
	ReleaseCart(ctx context.Context, cartToken string) error
}

// CartService implements the cart contract: add with stock validation,
// quantity reconciliation against the stock snapshot, totals, and clearing.
// Under the eager policy every mutation also adjusts reserved_stock in the
// shared catalog; under the optimistic policy carts stay local until
// submission.
type CartService struct {
	carts    CartStore
	products VariantReader
	reserver StockReserver
	policy   config.ReservationPolicy
	notifier sse.StockNotifier
}

// NewCartService constructs a CartService with the configured policy.
func NewCartService(carts CartStore, products VariantReader, reserver StockReserver, policy config.ReservationPolicy, notifier sse.StockNotifier) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		reserver: reserver,
		policy:   policy,
		notifier: notifier,
	}
}

func (s *CartService) eager() bool {
	return s.policy == config.ReservationEager
}

// CreateCart opens a new empty cart and returns it with its token.
func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{
		Token:     uuid.New().String(),
		Items:     []models.CartItem{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart loads a cart by token.
func (s *CartService) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	return s.carts.Get(ctx, token)
}

// AddToCart validates quantity against live available stock and inserts or
// merges the variant into the cart. The post-condition is that the cart
// never carries more of a variant than its available stock at add-time.
func (s *CartService) AddToCart(ctx context.Context, token string, productID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, utils.ErrInvalidQuantity
	}

	cart, err := s.carts.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	variant, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, utils.ErrProductNotFound
	}

	current := cart.Quantity(productID)

	if s.eager() {
		// The conditional update in the reserver is the stock check: it
		// fails atomically when available stock is insufficient, so two
		// concurrent shoppers can never both reserve the last units.
		if err := s.reserver.Reserve(ctx, token, productID, quantity); err != nil {
			return nil, err
		}
		variant.ReservedStock += quantity
		s.notifier.NotifyStockChanged(variant)
	} else {
		available := variant.AvailableStock()
		if current+quantity > available {
			return nil, &utils.InsufficientStockError{ProductID: productID, Remaining: available - current}
		}
	}

	if item := cart.Find(productID); item != nil {
		item.Quantity = current + quantity
		item.Stock = variant.Stock
		item.WholesalePrice = variant.WholesalePrice
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:      variant.ID,
			Reference:      variant.Reference,
			Size:           variant.Size,
			Description:    variant.Description,
			WholesalePrice: variant.WholesalePrice,
			Quantity:       quantity,
			Stock:          variant.Stock,
		})
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity reconciles an item's quantity: zero removes the item,
// negative values are a silent no-op, and anything above the stock snapshot
// is capped at it.
func (s *CartService) UpdateQuantity(ctx context.Context, token string, productID, newQty int) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if newQty < 0 {
		return cart, nil
	}

	item := cart.Find(productID)
	if item == nil {
		log.Debug().Int("product_id", productID).Msg("Quantity update for item not in cart, ignoring")
		return cart, nil
	}

	if newQty == 0 {
		if s.eager() {
			if err := s.releaseAndNotify(ctx, token, productID, item.Quantity); err != nil {
				return nil, err
			}
		}
		cart.Remove(productID)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}

	capped := newQty
	if capped > item.Stock {
		capped = item.Stock
	}

	if s.eager() {
		delta := capped - item.Quantity
		switch {
		case delta > 0:
			if err := s.reserver.Reserve(ctx, token, productID, delta); err != nil {
				return nil, err
			}
			s.notifyVariant(ctx, productID)
		case delta < 0:
			if err := s.releaseAndNotify(ctx, token, productID, -delta); err != nil {
				return nil, err
			}
		}
	}

	item.Quantity = capped
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart unconditionally empties and drops the cart, releasing any holds.
func (s *CartService) ClearCart(ctx context.Context, token string) error {
	if s.eager() {
		if err := s.reserver.ReleaseCart(ctx, token); err != nil {
			return err
		}
	}
	return s.carts.Delete(ctx, token)
}

func (s *CartService) releaseAndNotify(ctx context.Context, token string, productID, qty int) error {
	if err := s.reserver.Release(ctx, token, productID, qty); err != nil {
		return err
	}
	s.notifyVariant(ctx, productID)
	return nil
}

// notifyVariant broadcasts the variant's fresh counters; lookup failures only
// cost the refetch hint, so they are logged and swallowed.
func (s *CartService) notifyVariant(ctx context.Context, productID int) {
	variant, err := s.products.GetByID(ctx, productID)
	if err != nil {
		log.Warn().Err(err).Int("product_id", productID).Msg("Failed to load variant for stock event")
		return
	}
	s.notifier.NotifyStockChanged(variant)
}
