package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/logging"
	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/notification"
	"github.com/wasteless/marketplace/internal/payment"
	"github.com/wasteless/marketplace/internal/repo"
)

// autoConfirmAge is how long a pending order may sit before the buyer can
// self-complete it even without a confirmed payment.
const autoConfirmAge = 7 * 24 * time.Hour

var statusTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.StatusPending:   {models.StatusShipped: true, models.StatusCancelled: true},
	models.StatusShipped:   {models.StatusDelivered: true, models.StatusCancelled: true},
	models.StatusDelivered: {},
	models.StatusCancelled: {},
}

var paymentTransitions = map[models.PaymentStatus]map[models.PaymentStatus]bool{
	models.PaymentPending: {models.PaymentPaid: true, models.PaymentFailed: true},
	models.PaymentPaid:    {},
	models.PaymentFailed:  {},
}

func CanTransition(from, to models.OrderStatus) bool {
	allowed, ok := statusTransitions[from]
	return ok && allowed[to]
}

func CanTransitionPayment(from, to models.PaymentStatus) bool {
	allowed, ok := paymentTransitions[from]
	return ok && allowed[to]
}

func knownStatus(s models.OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

func knownPaymentStatus(s models.PaymentStatus) bool {
	_, ok := paymentTransitions[s]
	return ok
}

type OrderService struct {
	DB       *gorm.DB
	Repo     *repo.GormRepo
	Notifier notification.Notifier
	Now      func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// UpdateStatus drives the order status machine. Sellers may only act on
// orders carrying at least one of their own product lines; admins act on any.
func (s *OrderService) UpdateStatus(ctx context.Context, actor auth.Principal, orderID uint, to models.OrderStatus) (*models.Order, error) {
	if !knownStatus(to) {
		return nil, fmt.Errorf("unknown status %q: %w", to, ErrValidation)
	}

	var order *models.Order
	var buyer *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.New(tx)

		o, err := r.OrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}

		switch actor.Role {
		case models.RoleAdmin:
		case models.RoleSeller:
			owns, err := r.OrderHasSellerLines(ctx, orderID, actor.UserID)
			if err != nil {
				return err
			}
			if !owns {
				return fmt.Errorf("order %d has no lines for seller %d: %w", orderID, actor.UserID, ErrUnauthorized)
			}
		default:
			return fmt.Errorf("role %q cannot update order status: %w", actor.Role, ErrUnauthorized)
		}

		if !CanTransition(o.Status, to) {
			return fmt.Errorf("order %d cannot move from %s to %s: %w", orderID, o.Status, to, ErrInvalidTransition)
		}

		if err := r.UpdateOrderStatus(ctx, orderID, to); err != nil {
			return err
		}
		o.Status = to
		order = o

		if to == models.StatusDelivered {
			buyer, err = r.UserByID(ctx, o.UserID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if buyer != nil {
		s.notifyDelivered(ctx, buyer, order)
	}
	return order, nil
}

// UpdatePaymentStatus lets sellers settle COD payments on their own orders.
// Admins may force-correct any payment state.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, actor auth.Principal, orderID uint, to models.PaymentStatus) (*models.Order, error) {
	if !knownPaymentStatus(to) {
		return nil, fmt.Errorf("unknown payment status %q: %w", to, ErrValidation)
	}

	var order *models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.New(tx)

		o, err := r.OrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}

		switch actor.Role {
		case models.RoleAdmin:
			// admin bypasses the transition table
		case models.RoleSeller:
			owns, err := r.OrderHasSellerLines(ctx, orderID, actor.UserID)
			if err != nil {
				return err
			}
			if !owns {
				return fmt.Errorf("order %d has no lines for seller %d: %w", orderID, actor.UserID, ErrUnauthorized)
			}
			if o.PaymentMethod != models.PaymentCOD {
				return fmt.Errorf("seller may only settle cash-on-delivery orders: %w", ErrUnauthorized)
			}
			if !CanTransitionPayment(o.PaymentStatus, to) {
				return fmt.Errorf("order %d payment cannot move from %s to %s: %w", orderID, o.PaymentStatus, to, ErrInvalidTransition)
			}
		default:
			return fmt.Errorf("role %q cannot update payment status: %w", actor.Role, ErrUnauthorized)
		}

		if err := r.UpdatePaymentStatus(ctx, orderID, to); err != nil {
			return err
		}
		o.PaymentStatus = to
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Complete is the buyer's auto-confirm escape hatch: a pending order whose
// payment settled, or that was cash-on-delivery, or that has been sitting for
// seven days, may be self-marked delivered and paid.
func (s *OrderService) Complete(ctx context.Context, actor auth.Principal, orderID uint) (*models.Order, error) {
	var order *models.Order
	var buyer *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.New(tx)

		o, err := r.OrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}
		if o.UserID != actor.UserID {
			return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		if o.Status != models.StatusPending {
			return fmt.Errorf("order %d is %s, only pending orders can be completed: %w", orderID, o.Status, ErrInvalidTransition)
		}

		eligible := o.PaymentStatus == models.PaymentPaid ||
			o.PaymentMethod == models.PaymentCOD ||
			s.now().Sub(o.CreatedAt) >= autoConfirmAge
		if !eligible {
			return fmt.Errorf("order %d is not eligible for completion yet: %w", orderID, ErrInvalidTransition)
		}

		if err := r.UpdateOrderStatus(ctx, orderID, models.StatusDelivered); err != nil {
			return err
		}
		if err := r.UpdatePaymentStatus(ctx, orderID, models.PaymentPaid); err != nil {
			return err
		}
		o.Status = models.StatusDelivered
		o.PaymentStatus = models.PaymentPaid
		order = o

		buyer, err = r.UserByID(ctx, o.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyDelivered(ctx, buyer, order)
	return order, nil
}

// HandleGatewayNotification reconciles an asynchronous payment callback onto
// the order matched by correlation id. Unknown correlation ids are dropped;
// the webhook endpoint always acknowledges regardless of the outcome here.
func (s *OrderService) HandleGatewayNotification(ctx context.Context, n payment.Notification) error {
	order, err := s.Repo.OrderByGatewayID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(ctx).Warn("gateway notification for unknown order",
				"gateway_order_id", n.OrderID)
			return nil
		}
		return err
	}

	status := models.PaymentPending
	if n.TransactionStatus == "settlement" {
		status = models.PaymentPaid
	}

	return s.Repo.ApplyGatewayNotification(ctx, order.ID,
		status, n.TransactionID, n.StatusCode, n.TransactionStatus, n.FraudStatus)
}

// Detail enforces read access: buyers see their own orders, admins any,
// sellers only orders carrying their lines, with the lines filtered to theirs.
func (s *OrderService) Detail(ctx context.Context, actor auth.Principal, orderID uint) (*models.Order, error) {
	order, err := s.Repo.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return order, nil
	case models.RoleSeller:
		items, err := s.Repo.SellerOrderItems(ctx, orderID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		order.Items = items
		return order, nil
	default:
		if order.UserID != actor.UserID {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return order, nil
	}
}

func (s *OrderService) UserOrders(ctx context.Context, userID uint, offset, limit int) ([]models.Order, int64, error) {
	return s.Repo.OrdersByUser(ctx, userID, offset, limit)
}

func (s *OrderService) SellerOrders(ctx context.Context, sellerID uint) ([]models.Order, error) {
	orders, err := s.Repo.SellerOrders(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.Repo.SellerOrderItems(ctx, orders[i].ID, sellerID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// notifyDelivered enqueues the delivery mail after the transaction has
// committed. A send failure is logged and never unwinds the transition.
func (s *OrderService) notifyDelivered(ctx context.Context, buyer *models.User, order *models.Order) {
	if s.Notifier == nil || buyer == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	data := map[string]any{
		"order_id":     order.ID,
		"name":         buyer.Name,
		"total_amount": order.TotalAmount,
	}
	if err := s.Notifier.Send(sendCtx, buyer.Email, "order_delivered", data); err != nil {
		logging.FromContext(ctx).Error("delivery notification failed",
			"order_id", order.ID, "error", err)
	}
}
