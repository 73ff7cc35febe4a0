package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/logging"
	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/payment"
	"github.com/wasteless/marketplace/internal/service"
	"github.com/wasteless/marketplace/internal/util"
)

type TransactionHandler struct {
	Checkout *service.CheckoutService
	Orders   *service.OrderService
}

func (h *TransactionHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transaction.create")

	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		PaymentMethod models.PaymentMethod `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	result, err := h.Checkout.Checkout(ctx, p.UserID, req.PaymentMethod)
	if err != nil {
		l.Warn("checkout failed", "user_id", p.UserID, "error", err)
		return respondError(c, err)
	}

	l.Info("checkout succeeded",
		"user_id", p.UserID,
		"order_id", result.Order.ID,
		"total_amount", result.Order.TotalAmount,
		"payment_method", result.Order.PaymentMethod)

	data := echo.Map{
		"transaction_id": result.Order.ID,
		"total_amount":   result.Order.TotalAmount,
		"payment_method": result.Order.PaymentMethod,
	}
	if result.SnapToken != "" {
		data["snap_token"] = result.SnapToken
	}
	return respond(c, http.StatusCreated, data)
}

func (h *TransactionHandler) GetDetail(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Orders.Detail(c.Request().Context(), p, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, order)
}

func (h *TransactionHandler) List(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, total, err := h.Orders.UserOrders(c.Request().Context(), p.UserID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"transactions": orders,
		"total":        total,
	})
}

// Complete is the buyer's self-confirm endpoint.
func (h *TransactionHandler) Complete(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Orders.Complete(c.Request().Context(), p, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, order)
}

// Notification receives asynchronous gateway callbacks. The endpoint is
// unauthenticated, correlation happens only through the gateway order id, and
// it always acknowledges so the gateway does not retry forever.
func (h *TransactionHandler) Notification(c echo.Context) error {
	ctx := c.Request().Context()

	var n payment.Notification
	if err := c.Bind(&n); err != nil {
		logging.FromContext(ctx).Error("gateway notification bind failed", "error", err)
		return c.NoContent(http.StatusOK)
	}

	if err := h.Orders.HandleGatewayNotification(ctx, n); err != nil {
		logging.FromContext(ctx).Error("gateway notification processing failed",
			"gateway_order_id", n.OrderID, "error", err)
	}
	return c.NoContent(http.StatusOK)
}
