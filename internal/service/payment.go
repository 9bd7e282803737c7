package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/notify"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/transport"
)

type PaymentService struct {
	Repo       *repo.GormRepo
	Inventory  *InventoryService
	Dispatcher notify.Dispatcher
}

var paymentMethods = map[models.PaymentMethod]bool{
	models.PayCash: true, models.PayCard: true, models.PayTransfer: true, models.PayMixed: true,
}

// Pay records a tender against the order. Partial amounts are accepted; the
// payment that carries the running total past the order total completes the
// order atomically (status PAID, table freed, audit row) and then runs the
// post-commit side effects: inventory decrement and the order-paid event.
// Side-effect failures are logged, never returned — the committed payment and
// status are the source of truth.
func (s *PaymentService) Pay(ctx context.Context, businessID, userID, orderID uuid.UUID, req transport.PayRequest) (*repo.SettleResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.pay", "order_id", orderID)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	method := models.PaymentMethod(req.Method)
	if !paymentMethods[method] {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.Method)
	}

	payment := &models.Payment{
		Amount:    req.Amount,
		Method:    method,
		Reference: req.Reference,
	}
	// Cash lands in the cashier's open drawer, when there is one.
	if method == models.PayCash {
		if shift, err := s.Repo.OpenShiftForUser(ctx, businessID, userID); err == nil {
			payment.ShiftID = &shift.ID
		} else if !repo.IsNotFound(err) {
			return nil, err
		}
	}

	result, err := s.Repo.Settle(ctx, businessID, orderID, payment)
	if err != nil {
		switch {
		case repo.IsNotFound(err):
			return nil, fmt.Errorf("%w: order", ErrNotFound)
		case errors.Is(err, repo.ErrNotPayable):
			return nil, fmt.Errorf("%w: %s", ErrInvalidState, err)
		case errors.Is(err, repo.ErrRaced):
			return nil, fmt.Errorf("%w: payment raced with another update, retry", ErrConflict)
		default:
			return nil, err
		}
	}

	if result.Completed {
		if err := s.Inventory.DecrementForOrder(ctx, businessID, result.Order.Items); err != nil {
			l.Error("inventory_decrement_failed", "error", err)
		}
		s.Dispatcher.Dispatch(ctx, notify.NewEvent(notify.EventOrderPaid, businessID, notify.OrderPaidPayload{
			Order: result.Order, TableID: result.Order.TableID,
		}))
		l.Info("order_settled", "paid", result.Order.PaidAmount, "total", result.Order.Total)
	} else {
		l.Info("partial_payment", "amount", req.Amount, "paid", result.Order.PaidAmount, "total", result.Order.Total)
	}
	return result, nil
}

func (s *PaymentService) ListForOrder(ctx context.Context, businessID, orderID uuid.UUID) ([]models.Payment, error) {
	return s.Repo.PaymentsForOrder(ctx, businessID, orderID)
}
