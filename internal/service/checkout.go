package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/payment"
	"github.com/wasteless/marketplace/internal/pricing"
	"github.com/wasteless/marketplace/internal/repo"
)

// gatewayNameLimit is the Snap item-name limit.
const gatewayNameLimit = 50

type CheckoutService struct {
	DB      *gorm.DB
	Gateway payment.Gateway
	Now     func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CheckoutResult struct {
	Order     *models.Order `json:"order"`
	SnapToken string        `json:"snap_token,omitempty"`
}

// Checkout snapshots the user's cart into an immutable order inside one
// database transaction: stock re-validation, price resolution, order + item
// rows, atomic stock decrement, cart wipe, and (for gateway payments) session
// creation. Any failure rolls the whole unit of work back.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, method models.PaymentMethod) (*CheckoutResult, error) {
	if method != models.PaymentMidtrans && method != models.PaymentCOD {
		return nil, fmt.Errorf("unknown payment method %q: %w", method, ErrValidation)
	}

	result := &CheckoutResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.New(tx)

		user, err := r.UserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", userID, ErrNotFound)
			}
			return err
		}

		address, err := r.AddressByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressRequired
			}
			return err
		}

		cart, err := r.CartByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		cartItems, err := r.CartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uint, 0, len(cartItems))
		for _, item := range cartItems {
			ids = append(ids, item.ProductID)
		}
		products, err := r.ProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		at := s.now()
		var subtotal int64
		orderItems := make([]models.OrderItem, 0, len(cartItems))
		gatewayItems := make([]payment.Item, 0, len(cartItems)+1)
		for _, item := range cartItems {
			product, ok := byID[item.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
			}
			if item.Quantity > product.StockQuantity {
				return &InsufficientStockError{ProductID: product.ID, ProductName: product.Name}
			}

			unit := pricing.Effective(product.Price, at)
			subtotal += unit * int64(item.Quantity)
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: unit,
			})
			gatewayItems = append(gatewayItems, payment.Item{
				ID:       strconv.FormatUint(uint64(product.ID), 10),
				Price:    unit,
				Quantity: item.Quantity,
				Name:     truncate(product.Name, gatewayNameLimit),
			})
		}

		surcharge := pricing.Surcharge(subtotal)
		total := subtotal + surcharge

		order := &models.Order{
			UserID:        userID,
			AddressID:     address.ID,
			TotalAmount:   total,
			Surcharge:     surcharge,
			PaymentMethod: method,
			PaymentStatus: models.PaymentPending,
			Status:        models.StatusPending,
			Items:         orderItems,
		}
		if err := r.CreateOrder(ctx, order); err != nil {
			return err
		}

		for _, item := range orderItems {
			decremented, err := r.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !decremented {
				product := byID[item.ProductID]
				return &InsufficientStockError{ProductID: product.ID, ProductName: product.Name}
			}
		}

		if err := r.ClearCart(ctx, cart.ID); err != nil {
			return err
		}

		if method == models.PaymentMidtrans {
			gatewayItems = append(gatewayItems, payment.Item{
				ID:       "PPN",
				Price:    surcharge,
				Quantity: 1,
				Name:     "PPN (0.7%)",
			})

			var lineSum int64
			for _, gi := range gatewayItems {
				lineSum += gi.Price * int64(gi.Quantity)
			}
			if lineSum != total {
				return fmt.Errorf("gateway line total %d does not match order total %d: %w", lineSum, total, ErrPaymentGateway)
			}

			gatewayOrderID := fmt.Sprintf("ORDER-%d-%d", order.ID, at.UnixMilli())
			session, err := s.Gateway.CreateSession(ctx, payment.SessionRequest{
				OrderID:     gatewayOrderID,
				GrossAmount: total,
				Customer:    payment.Customer{Email: user.Email, FirstName: user.Name},
				Items:       gatewayItems,
			})
			if err != nil {
				return fmt.Errorf("create session: %v: %w", err, ErrPaymentGateway)
			}
			if err := r.SetGatewayOrderID(ctx, order.ID, gatewayOrderID); err != nil {
				return err
			}
			order.GatewayOrderID = gatewayOrderID
			result.SnapToken = session.Token
		}

		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
