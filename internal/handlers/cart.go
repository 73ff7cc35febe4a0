package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/notification"
	"github.com/wasteless/marketplace/internal/service"
)

type CartHandler struct {
	Svc    *service.CartService
	Events notification.Publisher
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	publish(c, h.Events, "cart_events", fmt.Sprint(event["user_id"]), event)
}

func (h *CartHandler) GetCart(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	lines, err := h.Svc.Get(c.Request().Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, lines)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.AddItem(c.Request().Context(), p.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_added",
		"user_id":    p.UserID,
		"product_id": req.ProductID,
		"quantity":   item.Quantity,
	})
	return respond(c, http.StatusOK, item)
}

func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	productID, err := parseUintParam(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateItem(c.Request().Context(), p.UserID, productID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_updated",
		"user_id":    p.UserID,
		"product_id": productID,
		"quantity":   item.Quantity,
	})
	return respond(c, http.StatusOK, item)
}

func (h *CartHandler) RemoveCartItem(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	productID, err := parseUintParam(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	if err := h.Svc.RemoveItem(c.Request().Context(), p.UserID, productID); err != nil {
		return respondError(c, err)
	}

	h.publish(c, map[string]any{
		"type":       "cart_item_removed",
		"user_id":    p.UserID,
		"product_id": productID,
	})
	return respondMessage(c, http.StatusOK, "Item removed from cart")
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Clear(c.Request().Context(), p.UserID); err != nil {
		return respondError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "cart_cleared",
		"user_id": p.UserID,
	})
	return respondMessage(c, http.StatusOK, "Cart cleared")
}
