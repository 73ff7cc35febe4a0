package models

import (
	"time"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

type PaymentMethod string

const (
	PaymentMidtrans PaymentMethod = "midtrans"
	PaymentCOD      PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null"                 json:"name"`
	Email    string `gorm:"unique;not null"          json:"email"`
	Phone    string `json:"phone"`
	Role     Role   `gorm:"not null"                 json:"role"`
	IsActive bool   `gorm:"default:false"            json:"is_active"`
}

type Address struct {
	ID         uint   `gorm:"primaryKey"       json:"id"`
	UserID     uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Street     string `gorm:"not null"         json:"street"`
	District   string `json:"kecamatan"`
	Regency    string `json:"kabupaten"`
	PostalCode string `json:"postal_code"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey"      json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
}

type Product struct {
	ID            uint      `gorm:"primaryKey"     json:"id"`
	SellerID      uint      `gorm:"index;not null" json:"seller_id"`
	CategoryID    uint      `gorm:"index;not null" json:"category_id"`
	Name          string    `gorm:"not null"       json:"name"`
	Slug          string    `gorm:"index"          json:"slug"`
	StockQuantity uint      `json:"stock_quantity"`
	WeightGrams   uint      `json:"massa"`
	ExpiresAt     time.Time `json:"expired"`
	IsActive      bool      `gorm:"default:false"  json:"is_active"`
	PhotoRef      string    `json:"photo"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Price         Price     `gorm:"constraint:OnDelete:CASCADE" json:"price"`
}

// Price holds the single effective price row of a product. DiscountPrice is
// computed once at write time; readers only decide whether it applies.
type Price struct {
	ID                 uint       `gorm:"primaryKey"           json:"id"`
	ProductID          uint       `gorm:"uniqueIndex;not null" json:"product_id"`
	BasePrice          int64      `gorm:"not null"             json:"price"`
	IsDiscounted       bool       `gorm:"default:false"        json:"is_discount"`
	DiscountPercentage int        `json:"discount_percentage"`
	DiscountPrice      int64      `json:"discount_price"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
}

type Cart struct {
	ID     uint `gorm:"primaryKey"           json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                                  json:"id"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_product"       json:"cart_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_product"       json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                  json:"quantity"`
}

// Order is immutable after checkout except for Status, PaymentStatus and the
// gateway correlation fields.
type Order struct {
	ID                       uint          `gorm:"primaryKey"     json:"id"`
	UserID                   uint          `gorm:"index;not null" json:"user_id"`
	AddressID                uint          `gorm:"not null"       json:"address_id"`
	TotalAmount              int64         `gorm:"not null"       json:"total_amount"`
	Surcharge                int64         `gorm:"not null"       json:"ppn"`
	PaymentMethod            PaymentMethod `gorm:"not null"       json:"payment_method"`
	PaymentStatus            PaymentStatus `gorm:"not null;default:pending" json:"payment_status"`
	Status                   OrderStatus   `gorm:"not null;default:pending" json:"status"`
	GatewayOrderID           string        `gorm:"index"          json:"midtrans_order_id,omitempty"`
	GatewayTransactionID     string        `json:"midtrans_transaction_id,omitempty"`
	GatewayStatusCode        string        `json:"midtrans_status_code,omitempty"`
	GatewayTransactionStatus string        `json:"midtrans_transaction_status,omitempty"`
	GatewayFraudStatus       string        `json:"midtrans_fraud_status,omitempty"`
	CreatedAt                time.Time     `json:"created_at"`
	Items                    []OrderItem   `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint  `gorm:"primaryKey"     json:"id"`
	OrderID   uint  `gorm:"index;not null" json:"order_id"`
	ProductID uint  `gorm:"not null"       json:"product_id"`
	Quantity  uint  `gorm:"not null"       json:"quantity"`
	UnitPrice int64 `gorm:"not null"       json:"price"`
}
