package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/service"
)

type AdminHandler struct {
	Moderation *service.ModerationService
}

func (h *AdminHandler) ApproveProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	productID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	if err := h.Moderation.ApproveProduct(c.Request().Context(), p, productID); err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "Product approved")
}

func (h *AdminHandler) ApproveSeller(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	sellerID, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid seller id")
	}

	if err := h.Moderation.ApproveSeller(c.Request().Context(), p, sellerID); err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "Seller approved")
}
