package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/repo"
	"github.com/wasteless/marketplace/internal/service"
)

func newWebhookHandler(t *testing.T) (*gorm.DB, *TransactionHandler) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.Order{}, &models.OrderItem{},
	))
	return db, &TransactionHandler{
		Orders: &service.OrderService{DB: db, Repo: repo.New(db)},
	}
}

func postNotification(t *testing.T, h *TransactionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/notification", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Notification(e.NewContext(req, rec)))
	return rec
}

func TestNotificationSettlementMarksPaid(t *testing.T) {
	db, h := newWebhookHandler(t)
	order := &models.Order{
		UserID:         1,
		AddressID:      1,
		TotalAmount:    10070,
		Surcharge:      70,
		PaymentMethod:  models.PaymentMidtrans,
		PaymentStatus:  models.PaymentPending,
		Status:         models.StatusPending,
		GatewayOrderID: "ORDER-1-42",
	}
	require.NoError(t, db.Create(order).Error)

	rec := postNotification(t, h, `{
		"order_id": "ORDER-1-42",
		"transaction_id": "trx-9",
		"status_code": "200",
		"transaction_status": "settlement",
		"fraud_status": "accept"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var persisted models.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	require.Equal(t, models.PaymentPaid, persisted.PaymentStatus)
	require.Equal(t, "trx-9", persisted.GatewayTransactionID)
}

func TestNotificationUnknownOrderStillAcknowledged(t *testing.T) {
	_, h := newWebhookHandler(t)
	rec := postNotification(t, h, `{"order_id": "ORDER-999-1", "transaction_status": "settlement"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationMalformedBodyStillAcknowledged(t *testing.T) {
	_, h := newWebhookHandler(t)
	rec := postNotification(t, h, `{not json`)
	require.Equal(t, http.StatusOK, rec.Code)
}
