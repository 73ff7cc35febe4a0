package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/repo"
	"github.com/wasteless/marketplace/internal/service"
	"github.com/wasteless/marketplace/internal/util"
)

type SellerHandler struct {
	Orders     *service.OrderService
	Moderation *service.ModerationService
	Repo       *repo.GormRepo
}

func (h *SellerHandler) GetOrders(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	orders, err := h.Orders.SellerOrders(c.Request().Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, orders)
}

func (h *SellerHandler) UpdateOrderStatus(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), p, orderID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, order)
}

func (h *SellerHandler) UpdatePaymentStatus(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	order, err := h.Orders.UpdatePaymentStatus(c.Request().Context(), p, orderID, req.PaymentStatus)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, order)
}

func (h *SellerHandler) CreateProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	product, err := h.Moderation.CreateProduct(c.Request().Context(), p, req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, product)
}

func (h *SellerHandler) MyProducts(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	products, total, err := h.Repo.SellerProducts(c.Request().Context(), p.UserID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *SellerHandler) DeleteProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	productID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	if err := h.Moderation.DeleteProduct(c.Request().Context(), p, productID); err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "Product deleted")
}
