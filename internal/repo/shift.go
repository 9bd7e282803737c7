package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesapos/mesapos/internal/models"
)

func (r *GormRepo) CreateShift(ctx context.Context, shift *models.Shift) error {
	return r.DB.WithContext(ctx).Create(shift).Error
}

// OpenShiftForUser returns the user's open shift, or gorm.ErrRecordNotFound.
func (r *GormRepo) OpenShiftForUser(ctx context.Context, businessID, userID uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND user_id = ? AND status = ?", businessID, userID, models.ShiftOpen).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *GormRepo) GetShift(ctx context.Context, businessID, shiftID uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.DB.WithContext(ctx).
		Where("id = ? AND business_id = ?", shiftID, businessID).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *GormRepo) CreateCashMovement(ctx context.Context, movement *models.CashMovement) error {
	return r.DB.WithContext(ctx).Create(movement).Error
}

func (r *GormRepo) ListCashMovements(ctx context.Context, businessID, shiftID uuid.UUID) ([]models.CashMovement, error) {
	var rows []models.CashMovement
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND shift_id = ?", businessID, shiftID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ShiftCashTotals sums the CASH payments and manual movements attached to a
// shift. decimal columns come back through a string scan, so sums are done in
// Go rather than in SQL.
func (r *GormRepo) ShiftCashTotals(ctx context.Context, businessID, shiftID uuid.UUID) (payments, in, out decimal.Decimal, err error) {
	var rows []models.Payment
	if err = r.DB.WithContext(ctx).
		Where("business_id = ? AND shift_id = ? AND method = ?", businessID, shiftID, models.PayCash).
		Find(&rows).Error; err != nil {
		return
	}
	for _, p := range rows {
		payments = payments.Add(p.Amount)
	}
	var moves []models.CashMovement
	if err = r.DB.WithContext(ctx).
		Where("business_id = ? AND shift_id = ?", businessID, shiftID).
		Find(&moves).Error; err != nil {
		return
	}
	for _, m := range moves {
		if m.Direction == models.MovementIn {
			in = in.Add(m.Amount)
		} else {
			out = out.Add(m.Amount)
		}
	}
	return
}

// CloseShift stamps the reconciliation, conditional on the shift still being
// open.
func (r *GormRepo) CloseShift(ctx context.Context, shift *models.Shift, updates map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND status = ?", shift.ID, models.ShiftOpen).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRaced
	}
	return nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	var existing models.User
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND username = ?", user.BusinessID, user.Username).
		First(&existing).Error
	if err == nil {
		return gorm.ErrDuplicatedKey
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, businessID uuid.UUID, username string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND username = ? AND active = ?", businessID, username, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUser(ctx context.Context, businessID, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("id = ? AND business_id = ?", userID, businessID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ActiveSupervisors returns the users whose PIN may authorize post-send edits.
func (r *GormRepo) ActiveSupervisors(ctx context.Context, businessID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND active = ? AND role IN ?",
			businessID, true, []models.Role{models.RoleAdmin, models.RoleSupervisor}).
		Find(&users).Error
	return users, err
}
