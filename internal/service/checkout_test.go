package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/payment"
)

type fakeGateway struct {
	lastRequest *payment.SessionRequest
	token       string
	err         error
}

func (g *fakeGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.lastRequest = &req
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Session{Token: g.token}, nil
}

type checkoutFixture struct {
	db      *gorm.DB
	svc     *CheckoutService
	gateway *fakeGateway
	buyer   *models.User
	seller  *models.User
	apel    *models.Product
	roti    *models.Product
}

// newCheckoutFixture builds a buyer with an address and a two-line cart:
// 2 x Apel (10000 base, 10% discount active) and 1 x Roti (5000, no discount).
func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db := newTestDB(t)
	gateway := &fakeGateway{token: "snap-token"}

	buyer := createUser(t, db, models.RoleBuyer, true)
	createAddress(t, db, buyer.ID)
	seller := createUser(t, db, models.RoleSeller, true)

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	apel := createProduct(t, db, productOpts{
		sellerID: seller.ID, name: "Apel", stock: 5,
		basePrice: 10000, isDiscounted: true, discountPct: 10,
		windowStart: &start, windowEnd: &end,
	})
	roti := createProduct(t, db, productOpts{sellerID: seller.ID, name: "Roti", stock: 3, basePrice: 5000})

	cart := addToCart(t, db, buyer.ID, apel.ID, 2)
	require.NoError(t, db.Create(&models.CartItem{CartID: cart.ID, ProductID: roti.ID, Quantity: 1}).Error)

	return &checkoutFixture{
		db:      db,
		svc:     &CheckoutService{DB: db, Gateway: gateway},
		gateway: gateway,
		buyer:   buyer,
		seller:  seller,
		apel:    apel,
		roti:    roti,
	}
}

func (f *checkoutFixture) stock(t *testing.T, productID uint) uint {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, productID).Error)
	return product.StockQuantity
}

func (f *checkoutFixture) cartCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	f.db.Model(&models.CartItem{}).Count(&count)
	return count
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	return count
}

func TestCheckoutCOD(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, f.buyer.ID, models.PaymentCOD)
	require.NoError(t, err)
	order := result.Order

	// subtotal = 2*9000 + 5000 = 23000; PPN = round(23000*0.007) = 161
	require.Equal(t, int64(161), order.Surcharge)
	require.Equal(t, int64(23161), order.TotalAmount)
	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, models.PaymentPending, order.PaymentStatus)
	require.Empty(t, result.SnapToken)

	var persisted models.Order
	require.NoError(t, f.db.Preload("Items").First(&persisted, order.ID).Error)
	require.Len(t, persisted.Items, 2)

	var lineTotal int64
	for _, item := range persisted.Items {
		lineTotal += int64(item.Quantity) * item.UnitPrice
		switch item.ProductID {
		case f.apel.ID:
			require.Equal(t, int64(9000), item.UnitPrice)
			require.Equal(t, uint(2), item.Quantity)
		case f.roti.ID:
			require.Equal(t, int64(5000), item.UnitPrice)
			require.Equal(t, uint(1), item.Quantity)
		default:
			t.Fatalf("unexpected product %d in order", item.ProductID)
		}
	}
	require.Equal(t, persisted.TotalAmount, lineTotal+persisted.Surcharge)

	require.Equal(t, uint(3), f.stock(t, f.apel.ID))
	require.Equal(t, uint(2), f.stock(t, f.roti.ID))
	require.Equal(t, int64(0), f.cartCount(t))
}

func TestCheckoutFrozenPricesSurviveLaterChanges(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, f.buyer.ID, models.PaymentCOD)
	require.NoError(t, err)

	// a later price change must not affect the snapshot
	require.NoError(t, f.db.Model(&models.Price{}).
		Where("product_id = ?", f.apel.ID).
		Update("base_price", 99999).Error)

	var persisted models.Order
	require.NoError(t, f.db.Preload("Items").First(&persisted, result.Order.ID).Error)
	for _, item := range persisted.Items {
		if item.ProductID == f.apel.ID {
			require.Equal(t, int64(9000), item.UnitPrice)
		}
	}
}

func TestCheckoutGatewaySession(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, f.buyer.ID, models.PaymentMidtrans)
	require.NoError(t, err)
	require.Equal(t, "snap-token", result.SnapToken)
	require.NotEmpty(t, result.Order.GatewayOrderID)

	req := f.gateway.lastRequest
	require.NotNil(t, req)
	require.Equal(t, result.Order.TotalAmount, req.GrossAmount)

	// lines including the PPN pseudo-line must sum exactly to the total
	var lineSum int64
	var sawPPN bool
	for _, item := range req.Items {
		lineSum += item.Price * int64(item.Quantity)
		if item.ID == "PPN" {
			sawPPN = true
			require.Equal(t, result.Order.Surcharge, item.Price)
		}
	}
	require.True(t, sawPPN)
	require.Equal(t, req.GrossAmount, lineSum)

	var persisted models.Order
	require.NoError(t, f.db.First(&persisted, result.Order.ID).Error)
	require.Equal(t, result.Order.GatewayOrderID, persisted.GatewayOrderID)
}

func TestCheckoutGatewayFailureRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.err = errors.New("gateway unreachable")

	_, err := f.svc.Checkout(context.Background(), f.buyer.ID, models.PaymentMidtrans)
	require.ErrorIs(t, err, ErrPaymentGateway)

	require.Equal(t, int64(0), f.orderCount(t))
	require.Equal(t, uint(5), f.stock(t, f.apel.ID))
	require.Equal(t, uint(3), f.stock(t, f.roti.ID))
	require.Equal(t, int64(2), f.cartCount(t))
}

func TestCheckoutNoAddress(t *testing.T) {
	f := newCheckoutFixture(t)
	require.NoError(t, f.db.Where("user_id = ?", f.buyer.ID).Delete(&models.Address{}).Error)

	_, err := f.svc.Checkout(context.Background(), f.buyer.ID, models.PaymentCOD)
	require.ErrorIs(t, err, ErrAddressRequired)

	// recoverable failure performs no writes
	require.Equal(t, int64(0), f.orderCount(t))
	require.Equal(t, uint(5), f.stock(t, f.apel.ID))
	require.Equal(t, int64(2), f.cartCount(t))
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := &CheckoutService{DB: db, Gateway: &fakeGateway{}}
	ctx := context.Background()

	buyer := createUser(t, db, models.RoleBuyer, true)
	createAddress(t, db, buyer.ID)

	// no cart at all
	_, err := svc.Checkout(ctx, buyer.ID, models.PaymentCOD)
	require.ErrorIs(t, err, ErrEmptyCart)

	// cart exists but has no lines
	require.NoError(t, db.Create(&models.Cart{UserID: buyer.ID}).Error)
	_, err = svc.Checkout(ctx, buyer.ID, models.PaymentCOD)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := &CheckoutService{DB: db, Gateway: &fakeGateway{}}

	_, err := svc.Checkout(context.Background(), 42, models.PaymentCOD)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutUnknownPaymentMethod(t *testing.T) {
	db := newTestDB(t)
	svc := &CheckoutService{DB: db, Gateway: &fakeGateway{}}

	_, err := svc.Checkout(context.Background(), 1, models.PaymentMethod("wire"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	require.NoError(t, f.db.Model(&models.CartItem{}).
		Where("product_id = ?", f.roti.ID).
		Update("quantity", 4).Error)

	_, err := f.svc.Checkout(context.Background(), f.buyer.ID, models.PaymentCOD)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "Roti", stockErr.ProductName)

	require.Equal(t, int64(0), f.orderCount(t))
	require.Equal(t, uint(5), f.stock(t, f.apel.ID))
	require.Equal(t, uint(3), f.stock(t, f.roti.ID))
	require.Equal(t, int64(2), f.cartCount(t))
}

func TestCheckoutLastUnit(t *testing.T) {
	db := newTestDB(t)
	svc := &CheckoutService{DB: db, Gateway: &fakeGateway{}}
	ctx := context.Background()

	seller := createUser(t, db, models.RoleSeller, true)
	product := createProduct(t, db, productOpts{sellerID: seller.ID, name: "Tahu", stock: 1, basePrice: 4000})

	first := createUser(t, db, models.RoleBuyer, true)
	createAddress(t, db, first.ID)
	addToCart(t, db, first.ID, product.ID, 1)

	second := createUser(t, db, models.RoleBuyer, true)
	createAddress(t, db, second.ID)
	addToCart(t, db, second.ID, product.ID, 1)

	_, err := svc.Checkout(ctx, first.ID, models.PaymentCOD)
	require.NoError(t, err)

	// the second buyer raced for the same unit and must lose
	_, err = svc.Checkout(ctx, second.ID, models.PaymentCOD)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var remaining models.Product
	require.NoError(t, db.First(&remaining, product.ID).Error)
	require.Equal(t, uint(0), remaining.StockQuantity)
}

func TestCheckoutExpiredDiscountUsesBasePrice(t *testing.T) {
	db := newTestDB(t)
	svc := &CheckoutService{DB: db, Gateway: &fakeGateway{}}
	ctx := context.Background()

	buyer := createUser(t, db, models.RoleBuyer, true)
	createAddress(t, db, buyer.ID)
	seller := createUser(t, db, models.RoleSeller, true)

	start := time.Now().Add(-48 * time.Hour)
	end := time.Now().Add(-24 * time.Hour)
	product := createProduct(t, db, productOpts{
		sellerID: seller.ID, name: "Apel", stock: 5,
		basePrice: 10000, isDiscounted: true, discountPct: 10,
		windowStart: &start, windowEnd: &end,
	})
	addToCart(t, db, buyer.ID, product.ID, 1)

	result, err := svc.Checkout(ctx, buyer.ID, models.PaymentCOD)
	require.NoError(t, err)

	var persisted models.Order
	require.NoError(t, db.Preload("Items").First(&persisted, result.Order.ID).Error)
	require.Equal(t, int64(10000), persisted.Items[0].UnitPrice)
}
