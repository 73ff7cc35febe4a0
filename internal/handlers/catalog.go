package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/pricing"
	"github.com/wasteless/marketplace/internal/repo"
	"github.com/wasteless/marketplace/internal/util"
)

type CatalogHandler struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (h *CatalogHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type productView struct {
	models.Product
	EffectivePrice int64 `json:"effective_price"`
}

func (h *CatalogHandler) view(p models.Product) productView {
	return productView{Product: p, EffectivePrice: pricing.Effective(p.Price, h.now())}
}

func (h *CatalogHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	products, total, err := h.Repo.ActiveProducts(c.Request().Context(), offset, limit)
	if err != nil {
		return respondError(c, err)
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, h.view(p))
	}
	return respond(c, http.StatusOK, echo.Map{
		"products": views,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	product, err := h.Repo.ProductByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "product not found")
		}
		return respondError(c, err)
	}
	if !product.IsActive {
		return fail(c, http.StatusNotFound, "product not found")
	}
	return respond(c, http.StatusOK, h.view(*product))
}

func (h *CatalogHandler) GetCategories(c echo.Context) error {
	categories, err := h.Repo.Categories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, categories)
}
