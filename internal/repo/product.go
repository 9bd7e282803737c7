package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/models"
)

func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Create(product).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).
		Where("id = ? AND business_id = ?", productID, businessID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&products).Error
	return products, err
}

func (r *GormRepo) ListProducts(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Where("business_id = ?", businessID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var products []models.Product
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *GormRepo) PatchProduct(ctx context.Context, businessID, productID uuid.UUID, updates map[string]any) (*models.Product, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND business_id = ?", productID, businessID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRaced
	}
	return r.GetProduct(ctx, businessID, productID)
}

func (r *GormRepo) CreateBusiness(ctx context.Context, business *models.Business) error {
	return r.DB.WithContext(ctx).Create(business).Error
}

func (r *GormRepo) GetBusiness(ctx context.Context, businessID uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.DB.WithContext(ctx).First(&business, "id = ?", businessID).Error; err != nil {
		return nil, err
	}
	return &business, nil
}
