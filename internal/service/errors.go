package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation")        // 400
	ErrNotFound          = errors.New("not found")         // 404
	ErrAddressRequired   = errors.New("address required")  // 400 + needAddress hint
	ErrEmptyCart         = errors.New("cart is empty")     // 400
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrInvalidTransition = errors.New("invalid status transition") // 409
	ErrUnauthorized      = errors.New("unauthorized")      // 403
	ErrPaymentGateway    = errors.New("payment gateway")   // 502
)

// InsufficientStockError names the product so the client can react.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
