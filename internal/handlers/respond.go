package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wasteless/marketplace/internal/logging"
	"github.com/wasteless/marketplace/internal/service"
)

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, echo.Map{"success": true, "data": data})
}

func respondMessage(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"success": true, "message": message})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"success": false, "message": message})
}

// respondError maps the service error taxonomy onto HTTP. Internal errors stay
// opaque to the client and go to the log instead.
func respondError(c echo.Context, err error) error {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"success":    false,
			"message":    stockErr.Error(),
			"product_id": stockErr.ProductID,
		})
	case errors.Is(err, service.ErrAddressRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":     false,
			"message":     "Please add address first",
			"needAddress": true,
		})
	case errors.Is(err, service.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPaymentGateway):
		logging.FromContext(c.Request().Context()).Error("payment gateway failure", "error", err)
		return fail(c, http.StatusBadGateway, "payment gateway unavailable")
	default:
		logging.FromContext(c.Request().Context()).Error("internal error", "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
}
