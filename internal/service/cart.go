package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/pricing"
	"github.com/wasteless/marketplace/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CartLine is a cart item joined with live product stock and effective price.
type CartLine struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Photo     string `json:"photo"`
	Quantity  uint   `json:"quantity"`
	Stock     uint   `json:"stock"`
	UnitPrice int64  `json:"unit_price"`
}

// Get lazily creates the user's cart on first access.
func (s *CartService) Get(ctx context.Context, userID uint) ([]CartLine, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.Repo.CartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []CartLine{}, nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	at := s.now()
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Photo:     product.PhotoRef,
			Quantity:  item.Quantity,
			Stock:     product.StockQuantity,
			UnitPrice: pricing.Effective(product.Price, at),
		})
	}
	return lines, nil
}

// AddItem sums quantities onto an existing line. Stock is not checked here;
// checkout re-validates authoritatively.
func (s *CartService) AddItem(ctx context.Context, userID, productID, qty uint) (*models.CartItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	if _, err := s.Repo.ProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.CartItem(ctx, cart.ID, productID)
	if err == nil {
		item.Quantity += qty
		if err := s.Repo.SaveCartItem(ctx, item); err != nil {
			return nil, err
		}
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newItem := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}
	if err := s.Repo.CreateCartItem(ctx, newItem); err != nil {
		return nil, err
	}
	return newItem, nil
}

// UpdateItem replaces a line's quantity. The stock check reads live stock at
// call time and is advisory only.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID, qty uint) (*models.CartItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	item, err := s.Repo.CartItem(ctx, cart.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item for product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}

	product, err := s.Repo.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	if qty > product.StockQuantity {
		return nil, &InsufficientStockError{ProductID: product.ID, ProductName: product.Name}
	}

	item.Quantity = qty
	if err := s.Repo.SaveCartItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem reports a missing cart or a missing line as not found so client
// bugs surface immediately.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) error {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
		}
		return err
	}

	deleted, err := s.Repo.DeleteCartItem(ctx, cart.ID, productID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("cart item for product %d: %w", productID, ErrNotFound)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
		}
		return err
	}
	return s.Repo.ClearCart(ctx, cart.ID)
}
