package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesapos/mesapos/internal/hash"
	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/notify"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/states"
	"github.com/mesapos/mesapos/internal/transport"
)

type OrderService struct {
	Repo       *repo.GormRepo
	Dispatcher notify.Dispatcher
}

// buildItems snapshots name, type and current price for every requested line.
// Client-supplied prices are never trusted.
func (s *OrderService) buildItems(ctx context.Context, businessID uuid.UUID, reqs []transport.OrderItemRequest) ([]models.OrderItem, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: items required", ErrValidation)
	}

	ids := make([]uuid.UUID, 0, len(reqs))
	for i := range reqs {
		if reqs[i].ProductID == uuid.Nil {
			return nil, decimal.Zero, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if reqs[i].Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		ids = append(ids, reqs[i].ProductID)
	}

	products, err := s.Repo.GetProductsByIDs(ctx, businessID, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal decimal.Decimal
	items := make([]models.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		p, ok := byID[r.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: unknown product %s", ErrValidation, r.ProductID)
		}
		if !p.Active {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s is inactive", ErrValidation, p.Name)
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Type:      p.Type,
			Quantity:  r.Quantity,
			UnitPrice: p.Price,
			Subtotal:  lineTotal,
			Status:    models.ItemPending,
			Note:      r.Note,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

func totals(subtotal, taxRate, tip decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(taxRate).Round(2)
	total = subtotal.Add(tax).Add(tip)
	return tax, total
}

// Create opens an order on a table. The table flips to OCCUPIED in the same
// transaction, guarded against a concurrent opener; its re-entry PIN becomes
// the owning waiter's PIN.
func (s *OrderService) Create(ctx context.Context, businessID, userID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	if req.Tip.IsNegative() {
		return nil, fmt.Errorf("%w: tip must be >= 0", ErrValidation)
	}
	business, err := s.Repo.GetBusiness(ctx, businessID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: business", ErrNotFound)
		}
		return nil, err
	}
	if _, err := s.Repo.GetTable(ctx, businessID, req.TableID); err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: table", ErrNotFound)
		}
		return nil, err
	}
	waiter, err := s.Repo.GetUser(ctx, businessID, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, businessID, req.Items)
	if err != nil {
		return nil, err
	}
	tax, total := totals(subtotal, business.TaxRate, req.Tip)

	order := &models.Order{
		BusinessID: businessID,
		TableID:    req.TableID,
		UserID:     userID,
		Status:     models.OrderPending,
		Items:      items,
		Subtotal:   subtotal,
		Tax:        tax,
		Tip:        req.Tip,
		Total:      total,
		PaidAmount: decimal.Zero,
		Note:       req.Note,
	}
	if err := s.Repo.CreateOrderOccupyingTable(ctx, order, waiter.Pin); err != nil {
		if errors.Is(err, repo.ErrTableUnavailable) {
			return nil, fmt.Errorf("%w: table is not available for a new order", ErrConflict)
		}
		return nil, err
	}

	l.Info("order_created", "order_id", order.ID, "table_id", order.TableID, "total", order.Total)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, businessID, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListActive(ctx context.Context, businessID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListActiveOrders(ctx, businessID)
}

// UpdateItems replaces the line items. Pre-send edits are free; once the order
// is PREPARING the stations may already be working, so a supervisor PIN is
// required.
func (s *OrderService) UpdateItems(ctx context.Context, businessID, orderID uuid.UUID, req transport.UpdateItemsRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_items")

	order, err := s.Get(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderPending:
	case models.OrderPreparing:
		if err := s.checkSupervisorPin(ctx, businessID, req.SupervisorPin); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: items editable while PENDING or PREPARING, order is %s", ErrInvalidState, order.Status)
	}
	if req.Tip.IsNegative() {
		return nil, fmt.Errorf("%w: tip must be >= 0", ErrValidation)
	}

	business, err := s.Repo.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	items, subtotal, err := s.buildItems(ctx, businessID, req.Items)
	if err != nil {
		return nil, err
	}
	tax, total := totals(subtotal, business.TaxRate, req.Tip)

	if err := s.Repo.ReplaceItems(ctx, order, items, subtotal, tax, total); err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
		}
		return nil, err
	}

	l.Info("order_items_updated", "order_id", order.ID, "items", len(items), "total", total)
	return s.Get(ctx, businessID, orderID)
}

func (s *OrderService) checkSupervisorPin(ctx context.Context, businessID uuid.UUID, pin string) error {
	if pin == "" {
		return fmt.Errorf("%w: supervisor pin required after send", ErrValidation)
	}
	supervisors, err := s.Repo.ActiveSupervisors(ctx, businessID)
	if err != nil {
		return err
	}
	for _, u := range supervisors {
		if hash.CheckPin(u.Pin, pin) {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid supervisor pin", ErrValidation)
}

// Send dispatches the order to the stations: food lines to the kitchen, drink
// lines to the bar, one combined event business-wide, then PENDING→PREPARING.
func (s *OrderService) Send(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.send")

	order, err := s.Get(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%w: order is %s, send requires PENDING", ErrInvalidState, order.Status)
	}

	if err := s.Repo.TransitionOrder(ctx, businessID, orderID, models.OrderPending, models.OrderPreparing); err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
		}
		return nil, err
	}

	tableNumber := 0
	if table, err := s.Repo.GetTable(ctx, businessID, order.TableID); err == nil {
		tableNumber = table.Number
	}

	var food, drink, all []notify.SentItem
	for _, it := range order.Items {
		sent := notify.SentItem{
			ItemID: it.ID, Name: it.Name, Quantity: it.Quantity, Type: it.Type, Note: it.Note,
		}
		all = append(all, sent)
		if it.Type == models.ProductDrink {
			drink = append(drink, sent)
		} else {
			food = append(food, sent)
		}
	}
	payload := func(items []notify.SentItem) notify.OrderSentPayload {
		return notify.OrderSentPayload{
			OrderID: order.ID, TableID: order.TableID, TableNumber: tableNumber, Items: items,
		}
	}
	if len(food) > 0 {
		s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventOrderSentKitchen, businessID, payload(food)))
	}
	if len(drink) > 0 {
		s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventOrderSentBar, businessID, payload(drink)))
	}
	s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventOrderSent, businessID, payload(all)))

	l.Info("order_sent", "order_id", order.ID, "kitchen_items", len(food), "bar_items", len(drink))
	return s.Get(ctx, businessID, orderID)
}

// UpdateItemStatus advances one line item and recomputes the order's
// aggregate status from its items. The item write targets a single row, so
// kitchen and bar working different items of one order never conflict.
func (s *OrderService) UpdateItemStatus(ctx context.Context, businessID, itemID uuid.UUID, newStatus models.ItemStatus) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_item_status")

	if !states.ValidItemStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown item status %q", ErrValidation, newStatus)
	}
	item, order, err := s.itemInScope(ctx, businessID, itemID)
	if err != nil {
		return nil, err
	}
	if !states.ItemCan(item.Status, newStatus) {
		return nil, fmt.Errorf("%w: item is %s, valid transitions: %s",
			ErrInvalidState, item.Status, states.ItemNext(item.Status))
	}
	if err := s.Repo.UpdateItemStatus(ctx, itemID, item.Status, newStatus); err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: item changed concurrently, retry", ErrConflict)
		}
		return nil, err
	}

	order, err = s.Get(ctx, businessID, order.ID)
	if err != nil {
		return nil, err
	}
	agg := states.AggregateOrderStatus(order.Items)
	switch {
	case agg == models.OrderCancelled && order.Status != models.OrderCancelled:
		// Every item was cancelled; terminate the order and release the table.
		if _, err := s.Cancel(ctx, businessID, order.ID); err != nil && !errors.Is(err, ErrConflict) {
			return nil, err
		}
		order, err = s.Get(ctx, businessID, order.ID)
		if err != nil {
			return nil, err
		}
	case agg != order.Status && states.OrderCan(order.Status, agg):
		if err := s.Repo.TransitionOrder(ctx, businessID, order.ID, order.Status, agg); err != nil {
			// Another station's update advanced the order first; the item
			// write above is already committed.
			if !errors.Is(err, repo.ErrRaced) {
				return nil, err
			}
			l.Warn("aggregate_transition_raced", "order_id", order.ID)
		}
		order, err = s.Get(ctx, businessID, order.ID)
		if err != nil {
			return nil, err
		}
	}

	s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventItemStatus, businessID, notify.ItemStatusPayload{
		ItemID: itemID, OrderID: order.ID, Status: newStatus,
	}))
	l.Info("item_status_updated", "item_id", itemID, "status", newStatus, "order_status", order.Status)
	return order, nil
}

func (s *OrderService) itemInScope(ctx context.Context, businessID, itemID uuid.UUID) (*models.OrderItem, *models.Order, error) {
	item, order, err := s.Repo.GetItemWithOrder(ctx, businessID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: item", ErrNotFound)
		}
		return nil, nil, err
	}
	return item, order, nil
}

// UpdateStatus is the manual override for cashier/admin terminals. PAID is
// owned by the settlement engine and CANCELLED by Cancel; both are rejected
// here.
func (s *OrderService) UpdateStatus(ctx context.Context, businessID, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	if !states.ValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, newStatus)
	}
	if newStatus == models.OrderPaid {
		return nil, fmt.Errorf("%w: PAID is reached through payment settlement only", ErrValidation)
	}
	if newStatus == models.OrderCancelled {
		return s.Cancel(ctx, businessID, orderID)
	}
	order, err := s.Get(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}
	if !states.OrderCan(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: order is %s, valid transitions: %s",
			ErrInvalidState, order.Status, states.OrderNext(order.Status))
	}
	if err := s.Repo.TransitionOrder(ctx, businessID, orderID, order.Status, newStatus); err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
		}
		return nil, err
	}
	return s.Get(ctx, businessID, orderID)
}

// Cancel terminates a non-paid order and releases its table in the same
// transaction. Paid orders need the reconciliation flow, not this path.
func (s *OrderService) Cancel(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.cancel")

	order, err := s.Get(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderPaid {
		return nil, fmt.Errorf("%w: paid orders cannot be cancelled", ErrInvalidState)
	}
	if order.Status == models.OrderCancelled {
		return nil, fmt.Errorf("%w: order is already cancelled", ErrInvalidState)
	}
	if err := s.Repo.CancelOrderFreeingTable(ctx, order); err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
		}
		return nil, err
	}

	s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventOrderCancelled, businessID, notify.OrderCancelledPayload{
		OrderID: order.ID, TableID: order.TableID,
	}))
	l.Info("order_cancelled", "order_id", order.ID, "table_id", order.TableID)
	return s.Get(ctx, businessID, orderID)
}
