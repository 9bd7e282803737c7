package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/models"
)

func (r *GormRepo) CreateTable(ctx context.Context, table *models.Table) error {
	return r.DB.WithContext(ctx).Create(table).Error
}

func (r *GormRepo) GetTable(ctx context.Context, businessID, tableID uuid.UUID) (*models.Table, error) {
	var table models.Table
	err := r.DB.WithContext(ctx).
		Where("id = ? AND business_id = ?", tableID, businessID).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *GormRepo) GetTableByNumber(ctx context.Context, businessID uuid.UUID, number int) (*models.Table, error) {
	var table models.Table
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND number = ?", businessID, number).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *GormRepo) ListTables(ctx context.Context, businessID uuid.UUID) ([]models.Table, error) {
	var tables []models.Table
	err := r.DB.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("number ASC").
		Find(&tables).Error
	return tables, err
}

// TransitionTable flips a table between statuses, conditional on the set of
// statuses the move is legal from. Returns ErrRaced when the guard loses.
func (r *GormRepo) TransitionTable(ctx context.Context, businessID, tableID uuid.UUID, from []models.TableStatus, to models.TableStatus, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.DB.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND business_id = ? AND status IN ?", tableID, businessID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRaced
	}
	return nil
}
