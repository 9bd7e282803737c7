package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesapos/mesapos/internal/models"
)

// StockDelta is one product-level stock change.
type StockDelta struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
}

// ApplyStockDeltas applies signed quantity changes in one transaction.
// Products without an inventory row are untracked stock and are skipped, never
// an error. Returns the product ids that were actually touched.
func (r *GormRepo) ApplyStockDeltas(ctx context.Context, businessID uuid.UUID, deltas []StockDelta) ([]uuid.UUID, error) {
	touched := make([]uuid.UUID, 0, len(deltas))
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, d := range deltas {
			res := tx.Model(&models.Inventory{}).
				Where("business_id = ? AND product_id = ?", businessID, d.ProductID).
				Updates(map[string]any{
					"quantity":   gorm.Expr("quantity + ?", d.Qty),
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				touched = append(touched, d.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (r *GormRepo) GetStock(ctx context.Context, businessID, productID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND product_id = ?", businessID, productID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormRepo) ListStock(ctx context.Context, businessID uuid.UUID) ([]models.Inventory, error) {
	var rows []models.Inventory
	err := r.DB.WithContext(ctx).
		Where("business_id = ?", businessID).
		Find(&rows).Error
	return rows, err
}

// UpsertStock sets the absolute quantity and threshold for a product,
// creating the row on first use.
func (r *GormRepo) UpsertStock(ctx context.Context, inv *models.Inventory) error {
	var existing models.Inventory
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND product_id = ?", inv.BusinessID, inv.ProductID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.WithContext(ctx).Create(inv).Error
	}
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Model(&existing).
		Updates(map[string]any{
			"quantity":   inv.Quantity,
			"min_stock":  inv.MinStock,
			"updated_at": time.Now().UTC(),
		}).Error
}

// LowStock returns the tracked rows at or below their threshold among the
// given products.
func (r *GormRepo) LowStock(ctx context.Context, businessID uuid.UUID, productIDs []uuid.UUID) ([]models.Inventory, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.Inventory
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND product_id IN ? AND quantity <= min_stock", businessID, productIDs).
		Find(&rows).Error
	return rows, err
}

func (r *GormRepo) RecipeFor(ctx context.Context, businessID uuid.UUID, productIDs []uuid.UUID) ([]models.RecipeItem, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.RecipeItem
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND product_id IN ?", businessID, productIDs).
		Find(&rows).Error
	return rows, err
}

func (r *GormRepo) ReplaceRecipe(ctx context.Context, businessID, productID uuid.UUID, items []models.RecipeItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ? AND product_id = ?", businessID, productID).
			Delete(&models.RecipeItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].BusinessID = businessID
			items[i].ProductID = productID
		}
		return tx.Create(&items).Error
	})
}
