package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mesapos/mesapos/internal/models"
)

// CreateOrderOccupyingTable creates the order and flips its table to OCCUPIED
// in one transaction. The occupancy write is conditional on the table still
// being FREE or RESERVED, so two waiters racing for one table get exactly one
// winner; the loser sees ErrTableUnavailable.
func (r *GormRepo) CreateOrderOccupyingTable(ctx context.Context, order *models.Order, pin string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Table{}).
			Where("id = ? AND business_id = ? AND status IN ?",
				order.TableID, order.BusinessID,
				[]models.TableStatus{models.TableFree, models.TableReserved}).
			Updates(map[string]any{"status": models.TableOccupied, "pin": pin})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTableUnavailable
		}
		return tx.Create(order).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("id = ? AND business_id = ?", orderID, businessID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListActiveOrders(ctx context.Context, businessID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("business_id = ? AND status IN ?", businessID, models.ActiveOrderStatuses).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) ActiveOrderForTable(ctx context.Context, businessID, tableID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("business_id = ? AND table_id = ? AND status IN ?",
			businessID, tableID, models.ActiveOrderStatuses).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ReplaceItems swaps the order's line items and totals. The totals write is
// version-guarded so a settlement committing in between invalidates the edit.
func (r *GormRepo) ReplaceItems(ctx context.Context, order *models.Order, items []models.OrderItem, subtotal, tax, total decimal.Decimal) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"subtotal": subtotal,
				"tax":      tax,
				"total":    total,
				"version":  gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRaced
		}
		return nil
	})
}

// TransitionOrder moves the order from exactly one status to another. The
// write is conditional on the current status, so concurrent transitions get
// at most one winner.
func (r *GormRepo) TransitionOrder(ctx context.Context, businessID, orderID uuid.UUID, from, to models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND business_id = ? AND status = ?", orderID, businessID, from).
		Updates(map[string]any{"status": to, "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRaced
	}
	return nil
}

// CancelOrderFreeingTable cancels the order and releases its table in one
// transaction.
func (r *GormRepo) CancelOrderFreeingTable(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND business_id = ? AND status = ?", order.ID, order.BusinessID, order.Status).
			Updates(map[string]any{"status": models.OrderCancelled, "version": gorm.Expr("version + 1")})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRaced
		}
		return tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", order.TableID, models.TableOccupied).
			Updates(map[string]any{"status": models.TableFree, "pin": ""}).Error
	})
}

func (r *GormRepo) GetItemWithOrder(ctx context.Context, businessID, itemID uuid.UUID) (*models.OrderItem, *models.Order, error) {
	var item models.OrderItem
	if err := r.DB.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, nil, err
	}
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("id = ? AND business_id = ?", item.OrderID, businessID).
		First(&order).Error
	if err != nil {
		return nil, nil, err
	}
	return &item, &order, nil
}

// UpdateItemStatus is a targeted single-row write guarded by the item's
// current status, so kitchen and bar updating different items of one order
// never overwrite each other.
func (r *GormRepo) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, from, to models.ItemStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Where("id = ? AND status = ?", itemID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRaced
	}
	return nil
}

// SettleResult reports what one payment attempt did.
type SettleResult struct {
	Completed bool
	Order     *models.Order
	Payment   *models.Payment
}

// Settle records a payment against the order and, when the running total
// covers the order total, completes it: status PAID, paid_at stamped, table
// freed, audit row written. The completion decision is made under a row lock
// and the status write is additionally guarded by the version column, so two
// concurrent payments cannot both complete the order. Inventory and
// notifications are the caller's post-commit concern.
func (r *GormRepo) Settle(ctx context.Context, businessID, orderID uuid.UUID, payment *models.Payment) (*SettleResult, error) {
	result := &SettleResult{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ? AND business_id = ?", orderID, businessID)
		// sqlite has no row locks and serializes writers anyway; the version
		// guard below still makes the completion decision single-winner.
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var order models.Order
		if err := q.First(&order).Error; err != nil {
			return err
		}
		if order.Status != models.OrderReady && order.Status != models.OrderServed {
			return fmt.Errorf("%w: order is %s, payable from READY or SERVED", ErrNotPayable, order.Status)
		}

		payment.BusinessID = businessID
		payment.OrderID = order.ID
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		newPaid := order.PaidAmount.Add(payment.Amount)
		updates := map[string]any{
			"paid_amount": newPaid,
			"version":     gorm.Expr("version + 1"),
		}
		completed := newPaid.GreaterThanOrEqual(order.Total)
		now := time.Now().UTC()
		if completed {
			updates["status"] = models.OrderPaid
			updates["paid_at"] = now
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRaced
		}

		if completed {
			if err := tx.Model(&models.Table{}).
				Where("id = ? AND status = ?", order.TableID, models.TableOccupied).
				Updates(map[string]any{"status": models.TableFree, "pin": ""}).Error; err != nil {
				return err
			}
			audit := models.AuditLog{
				BusinessID: businessID,
				UserID:     order.UserID,
				Action:     "order.settled",
				Entity:     "order",
				EntityID:   order.ID,
				Detail:     fmt.Sprintf("total=%s paid=%s method=%s", order.Total, newPaid, payment.Method),
			}
			if err := tx.Create(&audit).Error; err != nil {
				return err
			}
		}

		if err := tx.Preload("Items").First(&order, "id = ?", order.ID).Error; err != nil {
			return err
		}
		result.Completed = completed
		result.Order = &order
		result.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *GormRepo) PaymentsForOrder(ctx context.Context, businessID, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.DB.WithContext(ctx).
		Where("business_id = ? AND order_id = ?", businessID, orderID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *GormRepo) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}
