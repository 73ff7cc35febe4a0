package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.Price{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, role models.Role, active bool) *models.User {
	t.Helper()
	user := &models.User{
		Name:     "user",
		Email:    "user@example.com",
		Role:     role,
		IsActive: active,
	}
	// emails are unique per user
	var count int64
	db.Model(&models.User{}).Count(&count)
	user.Email = user.Email[:4] + string(rune('a'+count)) + "@example.com"
	require.NoError(t, db.Create(user).Error)
	return user
}

func createAddress(t *testing.T, db *gorm.DB, userID uint) *models.Address {
	t.Helper()
	address := &models.Address{UserID: userID, Street: "Jl. Kaliurang 1"}
	require.NoError(t, db.Create(address).Error)
	return address
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

type productOpts struct {
	sellerID     uint
	categoryID   uint
	name         string
	stock        uint
	basePrice    int64
	discountPct  int
	windowStart  *time.Time
	windowEnd    *time.Time
	isDiscounted bool
}

func createProduct(t *testing.T, db *gorm.DB, opts productOpts) *models.Product {
	t.Helper()
	if opts.categoryID == 0 {
		opts.categoryID = createCategory(t, db, "Sayur-"+opts.name).ID
	}
	price := models.Price{BasePrice: opts.basePrice}
	if opts.isDiscounted {
		price.IsDiscounted = true
		price.DiscountPercentage = opts.discountPct
		price.DiscountPrice = opts.basePrice * int64(100-opts.discountPct) / 100
		price.StartDate = opts.windowStart
		price.EndDate = opts.windowEnd
	}
	product := &models.Product{
		SellerID:      opts.sellerID,
		CategoryID:    opts.categoryID,
		Name:          opts.name,
		StockQuantity: opts.stock,
		ExpiresAt:     time.Now().Add(48 * time.Hour),
		IsActive:      true,
		Price:         price,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID, qty uint) *models.Cart {
	t.Helper()
	r := repo.New(db)
	cart, err := r.GetOrCreateCart(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  qty,
	}).Error)
	return cart
}
