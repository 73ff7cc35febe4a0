package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/models"
)

func (r *GormRepo) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Preload("Price").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var products []models.Product
	err := r.DB.WithContext(ctx).Preload("Price").Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *GormRepo) ActiveProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.Preload("Price").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	return products, total, err
}

func (r *GormRepo) SellerProducts(ctx context.Context, sellerID uint, offset, limit int) ([]models.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("seller_id = ?", sellerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.Preload("Price").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	return products, total, err
}

func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Create(product).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	if err := r.DB.WithContext(ctx).Where("product_id = ?", id).Delete(&models.Price{}).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *GormRepo) SetProductActive(ctx context.Context, id uint, active bool) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", active)
	return res.RowsAffected == 1, res.Error
}

// DecrementStock atomically takes qty units off a product, refusing to go
// negative. The affected-row count is the outcome of the race: zero means a
// concurrent checkout got there first.
func (r *GormRepo) DecrementStock(ctx context.Context, productID, qty uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *GormRepo) CategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *GormRepo) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ExpireActiveProducts deactivates and recategorizes every active product past
// its expiry, skipping products already in the compost category.
func (r *GormRepo) ExpireActiveProducts(ctx context.Context, now time.Time, compostCategoryID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("expires_at <= ? AND is_active = ? AND category_id <> ?", now, true, compostCategoryID).
		Updates(map[string]any{
			"is_active":   false,
			"category_id": compostCategoryID,
		})
	return res.RowsAffected, res.Error
}
