package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/transport"
)

type ShiftService struct {
	Repo *repo.GormRepo
}

// Open starts a cash-drawer session. One open shift per user.
func (s *ShiftService) Open(ctx context.Context, businessID, userID uuid.UUID, req transport.OpenShiftRequest) (*models.Shift, error) {
	if req.OpeningFloat.IsNegative() {
		return nil, fmt.Errorf("%w: opening float must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.OpenShiftForUser(ctx, businessID, userID); err == nil {
		return nil, fmt.Errorf("%w: user already has an open shift", ErrConflict)
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	shift := &models.Shift{
		BusinessID:   businessID,
		UserID:       userID,
		Status:       models.ShiftOpen,
		OpeningFloat: req.OpeningFloat,
		OpenedAt:     time.Now().UTC(),
	}
	if err := s.Repo.CreateShift(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *ShiftService) Current(ctx context.Context, businessID, userID uuid.UUID) (*models.Shift, error) {
	shift, err := s.Repo.OpenShiftForUser(ctx, businessID, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: no open shift", ErrNotFound)
		}
		return nil, err
	}
	return shift, nil
}

// AddMovement records a manual cash in/out against the caller's open shift.
func (s *ShiftService) AddMovement(ctx context.Context, businessID, userID uuid.UUID, req transport.CashMovementRequest) (*models.CashMovement, error) {
	direction := models.MovementDirection(req.Direction)
	if direction != models.MovementIn && direction != models.MovementOut {
		return nil, fmt.Errorf("%w: direction must be IN or OUT", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	if req.Concept == "" {
		return nil, fmt.Errorf("%w: concept required", ErrValidation)
	}
	shift, err := s.Repo.OpenShiftForUser(ctx, businessID, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: open a shift before moving cash", ErrInvalidState)
		}
		return nil, err
	}

	movement := &models.CashMovement{
		BusinessID: businessID,
		ShiftID:    shift.ID,
		Direction:  direction,
		Concept:    req.Concept,
		Amount:     req.Amount,
	}
	if err := s.Repo.CreateCashMovement(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// Close reconciles the drawer: expected = float + cash payments + in − out;
// the difference against the counted amount is stored with the shift.
func (s *ShiftService) Close(ctx context.Context, businessID, userID uuid.UUID, req transport.CloseShiftRequest) (*models.Shift, error) {
	l := logging.FromContext(ctx).With("svc", "shift.close")

	if req.CountedCash.IsNegative() {
		return nil, fmt.Errorf("%w: counted cash must be >= 0", ErrValidation)
	}
	shift, err := s.Repo.OpenShiftForUser(ctx, businessID, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: no open shift", ErrNotFound)
		}
		return nil, err
	}

	payments, in, out, err := s.Repo.ShiftCashTotals(ctx, businessID, shift.ID)
	if err != nil {
		return nil, err
	}
	expected := shift.OpeningFloat.Add(payments).Add(in).Sub(out)
	difference := req.CountedCash.Sub(expected)
	now := time.Now().UTC()

	err = s.Repo.CloseShift(ctx, shift, map[string]any{
		"status":        models.ShiftClosed,
		"expected_cash": expected,
		"counted_cash":  req.CountedCash,
		"difference":    difference,
		"closed_at":     now,
	})
	if err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: shift already closed", ErrConflict)
		}
		return nil, err
	}

	audit := &models.AuditLog{
		BusinessID: businessID,
		UserID:     userID,
		Action:     "shift.closed",
		Entity:     "shift",
		EntityID:   shift.ID,
		Detail:     fmt.Sprintf("expected=%s counted=%s difference=%s", expected, req.CountedCash, difference),
	}
	if err := s.Repo.AppendAudit(ctx, audit); err != nil {
		l.Warn("audit_append_failed", "error", err)
	}

	l.Info("shift_closed", "shift_id", shift.ID, "difference", difference)
	return s.Repo.GetShift(ctx, businessID, shift.ID)
}
