package utils

import (
	"errors"
	"fmt"
)

// Common application errors used across services.
var (
	ErrInvalidQuantity         = errors.New("INVALID_QUANTITY")
	ErrInsufficientStock       = errors.New("INSUFFICIENT_STOCK")
	ErrValidation              = errors.New("VALIDATION_ERROR")
	ErrPersistence             = errors.New("PERSISTENCE_ERROR")
	ErrDispatch                = errors.New("DISPATCH_ERROR")
	ErrMissingRequiredMapping  = errors.New("MISSING_REQUIRED_MAPPING")
	ErrCartNotFound            = errors.New("CART_NOT_FOUND")
	ErrOrderNotFound           = errors.New("ORDER_NOT_FOUND")
	ErrProductNotFound         = errors.New("PRODUCT_NOT_FOUND")
	ErrInvalidStatusTransition = errors.New("INVALID_STATUS_TRANSITION")
)

// InsufficientStockError carries the remaining quantity that could still be
// added so the storefront can show it to the buyer.
type InsufficientStockError struct {
	ProductID int
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d more units available", e.Remaining)
}

// Is makes errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError carries the offending field for 400 responses.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
