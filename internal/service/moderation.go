package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/auth"
	"github.com/wasteless/marketplace/internal/models"
	"github.com/wasteless/marketplace/internal/pricing"
	"github.com/wasteless/marketplace/internal/repo"
)

// ModerationService implements the publication gate: seller accounts and
// seller-submitted products start inactive until an admin approves them.
type ModerationService struct {
	Repo *repo.GormRepo
}

type ProductInput struct {
	CategoryID         uint       `json:"category_id"`
	Name               string     `json:"name"`
	StockQuantity      uint       `json:"quantity"`
	WeightGrams        uint       `json:"massa"`
	ExpiresAt          time.Time  `json:"expired"`
	PhotoRef           string     `json:"photo"`
	BasePrice          int64      `json:"price"`
	IsDiscounted       bool       `json:"is_discount"`
	DiscountPercentage int        `json:"discount_percentage"`
	StartDate          *time.Time `json:"discount_start_date"`
	EndDate            *time.Time `json:"discount_end_date"`
}

func (s *ModerationService) CreateProduct(ctx context.Context, actor auth.Principal, in ProductInput) (*models.Product, error) {
	switch actor.Role {
	case models.RoleSeller:
		if !actor.IsActive {
			return nil, fmt.Errorf("account is not activated yet: %w", ErrUnauthorized)
		}
	case models.RoleAdmin:
	default:
		return nil, fmt.Errorf("role %q cannot create products: %w", actor.Role, ErrUnauthorized)
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.BasePrice < 0 {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return nil, fmt.Errorf("discount percentage must be within 0-100: %w", ErrValidation)
	}
	if (in.StartDate == nil) != (in.EndDate == nil) {
		return nil, fmt.Errorf("discount window needs both start and end dates: %w", ErrValidation)
	}
	if in.StartDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, fmt.Errorf("discount window end precedes start: %w", ErrValidation)
	}

	if _, err := s.Repo.CategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", in.CategoryID, ErrNotFound)
		}
		return nil, err
	}

	price := models.Price{
		BasePrice: in.BasePrice,
	}
	if in.IsDiscounted {
		price.IsDiscounted = true
		price.DiscountPercentage = in.DiscountPercentage
		price.DiscountPrice = pricing.DiscountPrice(in.BasePrice, in.DiscountPercentage)
		price.StartDate = in.StartDate
		price.EndDate = in.EndDate
	}

	product := &models.Product{
		SellerID:      actor.UserID,
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Slug:          slugify(in.Name),
		StockQuantity: in.StockQuantity,
		WeightGrams:   in.WeightGrams,
		ExpiresAt:     in.ExpiresAt,
		IsActive:      actor.Role == models.RoleAdmin,
		PhotoRef:      in.PhotoRef,
		Price:         price,
	}
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ModerationService) ApproveProduct(ctx context.Context, actor auth.Principal, productID uint) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("only admin may approve products: %w", ErrUnauthorized)
	}
	updated, err := s.Repo.SetProductActive(ctx, productID, true)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

func (s *ModerationService) ApproveSeller(ctx context.Context, actor auth.Principal, sellerID uint) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("only admin may approve sellers: %w", ErrUnauthorized)
	}
	user, err := s.Repo.UserByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", sellerID, ErrNotFound)
		}
		return err
	}
	if user.Role != models.RoleSeller {
		return fmt.Errorf("user %d is not a seller: %w", sellerID, ErrValidation)
	}
	_, err = s.Repo.ActivateUser(ctx, sellerID)
	return err
}

// DeleteProduct removes a product with its price row. Owners and admins only.
func (s *ModerationService) DeleteProduct(ctx context.Context, actor auth.Principal, productID uint) error {
	product, err := s.Repo.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return err
	}
	if actor.Role != models.RoleAdmin && product.SellerID != actor.UserID {
		return fmt.Errorf("product %d is not owned by user %d: %w", productID, actor.UserID, ErrUnauthorized)
	}
	return s.Repo.DeleteProduct(ctx, productID)
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
