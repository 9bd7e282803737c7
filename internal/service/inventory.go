package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/notify"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/transport"
)

type InventoryService struct {
	Repo       *repo.GormRepo
	Dispatcher notify.Dispatcher
}

// StockLine is one product-level quantity for decrement/increment.
type StockLine struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
}

// Decrement consumes stock. Lines for untracked products are skipped;
// crossing a minimum-stock threshold emits a low-stock event.
func (s *InventoryService) Decrement(ctx context.Context, businessID uuid.UUID, lines []StockLine) error {
	return s.apply(ctx, businessID, lines, decimal.NewFromInt(-1))
}

// Increment returns stock, used by reversal and cleanup flows.
func (s *InventoryService) Increment(ctx context.Context, businessID uuid.UUID, lines []StockLine) error {
	return s.apply(ctx, businessID, lines, decimal.NewFromInt(1))
}

func (s *InventoryService) apply(ctx context.Context, businessID uuid.UUID, lines []StockLine, sign decimal.Decimal) error {
	if len(lines) == 0 {
		return nil
	}
	deltas := make([]repo.StockDelta, 0, len(lines))
	for _, ln := range lines {
		if !ln.Qty.IsPositive() {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		deltas = append(deltas, repo.StockDelta{ProductID: ln.ProductID, Qty: ln.Qty.Mul(sign)})
	}
	touched, err := s.Repo.ApplyStockDeltas(ctx, businessID, deltas)
	if err != nil {
		return err
	}
	if sign.IsNegative() {
		s.notifyLowStock(ctx, businessID, touched)
	}
	return nil
}

// DecrementForOrder expands the order's frozen line items through the recipe
// mapping: each ingredient is consumed by ceil(qtyPerUnit × itemQty) per
// line, a product without a recipe is consumed directly. Cancelled items
// consume nothing.
func (s *InventoryService) DecrementForOrder(ctx context.Context, businessID uuid.UUID, items []models.OrderItem) error {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.Status != models.ItemCancelled {
			productIDs = append(productIDs, it.ProductID)
		}
	}
	if len(productIDs) == 0 {
		return nil
	}

	recipeRows, err := s.Repo.RecipeFor(ctx, businessID, productIDs)
	if err != nil {
		return err
	}
	recipes := map[uuid.UUID][]models.RecipeItem{}
	for _, row := range recipeRows {
		recipes[row.ProductID] = append(recipes[row.ProductID], row)
	}

	lines := map[uuid.UUID]decimal.Decimal{}
	for _, it := range items {
		if it.Status == models.ItemCancelled {
			continue
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		ingredients := recipes[it.ProductID]
		if len(ingredients) == 0 {
			lines[it.ProductID] = lines[it.ProductID].Add(qty)
			continue
		}
		for _, ing := range ingredients {
			// Round fractional consumption up so partial-unit waste is never
			// under-counted.
			consumed := ing.QtyPerUnit.Mul(qty).Ceil()
			lines[ing.IngredientID] = lines[ing.IngredientID].Add(consumed)
		}
	}

	flat := make([]StockLine, 0, len(lines))
	for id, qty := range lines {
		flat = append(flat, StockLine{ProductID: id, Qty: qty})
	}
	return s.Decrement(ctx, businessID, flat)
}

func (s *InventoryService) notifyLowStock(ctx context.Context, businessID uuid.UUID, productIDs []uuid.UUID) {
	low, err := s.Repo.LowStock(ctx, businessID, productIDs)
	if err != nil {
		logging.FromContext(ctx).Warn("low_stock_check_failed", "error", err)
		return
	}
	for _, inv := range low {
		s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventStockLow, businessID, notify.StockLowPayload{
			ProductID: inv.ProductID, Quantity: inv.Quantity, MinStock: inv.MinStock,
		}))
	}
}

func (s *InventoryService) List(ctx context.Context, businessID uuid.UUID) ([]models.Inventory, error) {
	return s.Repo.ListStock(ctx, businessID)
}

// Adjust sets the absolute on-hand quantity and threshold for a product and
// writes an audit row.
func (s *InventoryService) Adjust(ctx context.Context, businessID, userID uuid.UUID, req transport.AdjustStockRequest) (*models.Inventory, error) {
	if req.ProductID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if req.Quantity.IsNegative() || req.MinStock.IsNegative() {
		return nil, fmt.Errorf("%w: quantities must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, businessID, req.ProductID); err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: product", ErrNotFound)
		}
		return nil, err
	}

	inv := &models.Inventory{
		BusinessID: businessID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		MinStock:   req.MinStock,
	}
	if err := s.Repo.UpsertStock(ctx, inv); err != nil {
		return nil, err
	}
	audit := &models.AuditLog{
		BusinessID: businessID,
		UserID:     userID,
		Action:     "inventory.adjusted",
		Entity:     "inventory",
		EntityID:   req.ProductID,
		Detail:     fmt.Sprintf("qty=%s min=%s reason=%s", req.Quantity, req.MinStock, req.Reason),
	}
	if err := s.Repo.AppendAudit(ctx, audit); err != nil {
		logging.FromContext(ctx).Warn("audit_append_failed", "error", err)
	}
	return s.Repo.GetStock(ctx, businessID, req.ProductID)
}
