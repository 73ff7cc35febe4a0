package repo

import (
	"context"

	"github.com/wasteless/marketplace/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrderByGatewayID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrdersByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// SellerOrders lists orders containing at least one line item owned by the
// seller, newest first.
func (r *GormRepo) SellerOrders(ctx context.Context, sellerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.seller_id = ?", sellerID).
		Group("orders.id").
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

// SellerOrderItems restricts an order's lines to those owned by the seller.
func (r *GormRepo) SellerOrderItems(ctx context.Context, orderID, sellerID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB.WithContext(ctx).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.seller_id = ?", orderID, sellerID).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) OrderHasSellerLines(ctx context.Context, orderID, sellerID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.seller_id = ?", orderID, sellerID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *GormRepo) UpdatePaymentStatus(ctx context.Context, orderID uint, status models.PaymentStatus) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status).Error
}

func (r *GormRepo) SetGatewayOrderID(ctx context.Context, orderID uint, gatewayOrderID string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("gateway_order_id", gatewayOrderID).Error
}

// ApplyGatewayNotification writes the reconciled payment status plus the raw
// gateway correlation fields onto the matched order.
func (r *GormRepo) ApplyGatewayNotification(ctx context.Context, orderID uint, status models.PaymentStatus, transactionID, statusCode, transactionStatus, fraudStatus string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payment_status":             status,
			"gateway_transaction_id":     transactionID,
			"gateway_status_code":        statusCode,
			"gateway_transaction_status": transactionStatus,
			"gateway_fraud_status":       fraudStatus,
		}).Error
}
