package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/repo"
)

type AddressHandler struct {
	Repo *repo.GormRepo
}

func (h *AddressHandler) GetAddress(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	address, err := h.Repo.AddressByUser(c.Request().Context(), p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "address not found")
		}
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, address)
}

// PutAddress creates or replaces the user's single address.
func (h *AddressHandler) PutAddress(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		Street     string `json:"street"`
		District   string `json:"kecamatan"`
		Regency    string `json:"kabupaten"`
		PostalCode string `json:"postal_code"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Street == "" {
		return fail(c, http.StatusBadRequest, "street is required")
	}

	address := &models.Address{
		UserID:     p.UserID,
		Street:     req.Street,
		District:   req.District,
		Regency:    req.Regency,
		PostalCode: req.PostalCode,
	}
	if err := h.Repo.UpsertAddress(c.Request().Context(), address); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, address)
}
