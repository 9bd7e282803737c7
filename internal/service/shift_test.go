package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/transport"
)

func TestShiftService_Open(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	shift, err := env.shifts.Open(ctx, env.business.ID, env.cashier.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftOpen, shift.Status)
	eqDec(t, "100", shift.OpeningFloat)

	_, err = env.shifts.Open(ctx, env.business.ID, env.cashier.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("50")})
	assert.ErrorIs(t, err, ErrConflict)

	// A different user opens their own drawer freely.
	_, err = env.shifts.Open(ctx, env.business.ID, env.waiter.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("50")})
	require.NoError(t, err)

	current, err := env.shifts.Current(ctx, env.business.ID, env.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, shift.ID, current.ID)
}

func TestShiftService_Open_NegativeFloat(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.shifts.Open(context.Background(), env.business.ID, env.cashier.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestShiftService_AddMovement(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.shifts.AddMovement(ctx, env.business.ID, env.cashier.ID,
		transport.CashMovementRequest{Direction: "IN", Concept: "change", Amount: dec("20")})
	assert.ErrorIs(t, err, ErrInvalidState, "movements need an open shift")

	_, err = env.shifts.Open(ctx, env.business.ID, env.cashier.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("100")})
	require.NoError(t, err)

	movement, err := env.shifts.AddMovement(ctx, env.business.ID, env.cashier.ID,
		transport.CashMovementRequest{Direction: "IN", Concept: "change", Amount: dec("20")})
	require.NoError(t, err)
	assert.Equal(t, models.MovementIn, movement.Direction)

	tests := []struct {
		name string
		req  transport.CashMovementRequest
	}{
		{"bad direction", transport.CashMovementRequest{Direction: "SIDEWAYS", Concept: "x", Amount: dec("1")}},
		{"zero amount", transport.CashMovementRequest{Direction: "OUT", Concept: "x", Amount: dec("0")}},
		{"missing concept", transport.CashMovementRequest{Direction: "OUT", Amount: dec("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.shifts.AddMovement(ctx, env.business.ID, env.cashier.ID, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestShiftService_Close_Reconciliation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.shifts.Open(ctx, env.business.ID, env.cashier.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("100")})
	require.NoError(t, err)

	// 275 in cash sales lands in the drawer.
	order := env.readyOrder(t)
	_, err = env.payments.Pay(ctx, env.business.ID, env.cashier.ID, order.ID,
		transport.PayRequest{Amount: dec("275"), Method: "CASH"})
	require.NoError(t, err)

	_, err = env.shifts.AddMovement(ctx, env.business.ID, env.cashier.ID,
		transport.CashMovementRequest{Direction: "IN", Concept: "change from safe", Amount: dec("50")})
	require.NoError(t, err)
	_, err = env.shifts.AddMovement(ctx, env.business.ID, env.cashier.ID,
		transport.CashMovementRequest{Direction: "OUT", Concept: "supplier cod", Amount: dec("30")})
	require.NoError(t, err)

	// expected = 100 + 275 + 50 - 30 = 395; counted 390 leaves -5.
	closed, err := env.shifts.Close(ctx, env.business.ID, env.cashier.ID,
		transport.CloseShiftRequest{CountedCash: dec("390")})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftClosed, closed.Status)
	eqDec(t, "395", closed.ExpectedCash)
	eqDec(t, "390", closed.CountedCash)
	eqDec(t, "-5", closed.Difference)
	require.NotNil(t, closed.ClosedAt)

	_, err = env.shifts.Close(ctx, env.business.ID, env.cashier.ID,
		transport.CloseShiftRequest{CountedCash: dec("390")})
	assert.ErrorIs(t, err, ErrNotFound, "shift is no longer open")

	var audits []models.AuditLog
	require.NoError(t, env.db.Where("action = ?", "shift.closed").Find(&audits).Error)
	assert.Len(t, audits, 1)
}

func TestShiftService_Close_IgnoresCardPayments(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.shifts.Open(ctx, env.business.ID, env.cashier.ID,
		transport.OpenShiftRequest{OpeningFloat: dec("100")})
	require.NoError(t, err)

	order := env.readyOrder(t)
	_, err = env.payments.Pay(ctx, env.business.ID, env.cashier.ID, order.ID,
		transport.PayRequest{Amount: dec("275"), Method: "CARD"})
	require.NoError(t, err)

	closed, err := env.shifts.Close(ctx, env.business.ID, env.cashier.ID,
		transport.CloseShiftRequest{CountedCash: dec("100")})
	require.NoError(t, err)
	eqDec(t, "100", closed.ExpectedCash)
	eqDec(t, "0", closed.Difference)
}
