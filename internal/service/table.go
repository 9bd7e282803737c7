package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/hash"
	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/transport"
)

type TableService struct {
	Repo *repo.GormRepo
}

func (s *TableService) Create(ctx context.Context, businessID uuid.UUID, req transport.CreateTableRequest) (*models.Table, error) {
	if req.Number <= 0 {
		return nil, fmt.Errorf("%w: table number must be > 0", ErrValidation)
	}
	if _, err := s.Repo.GetTableByNumber(ctx, businessID, req.Number); err == nil {
		return nil, fmt.Errorf("%w: table %d already exists", ErrConflict, req.Number)
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = 4
	}
	table := &models.Table{
		BusinessID: businessID,
		Number:     req.Number,
		Capacity:   capacity,
		Status:     models.TableFree,
	}
	if err := s.Repo.CreateTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *TableService) List(ctx context.Context, businessID uuid.UUID) ([]models.Table, error) {
	return s.Repo.ListTables(ctx, businessID)
}

func (s *TableService) Get(ctx context.Context, businessID, tableID uuid.UUID) (*models.Table, error) {
	table, err := s.Repo.GetTable(ctx, businessID, tableID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: table", ErrNotFound)
		}
		return nil, err
	}
	return table, nil
}

// Reserve holds a FREE table for a named party.
func (s *TableService) Reserve(ctx context.Context, businessID, tableID uuid.UUID, reservedFor string) (*models.Table, error) {
	if _, err := s.Get(ctx, businessID, tableID); err != nil {
		return nil, err
	}
	err := s.Repo.TransitionTable(ctx, businessID, tableID,
		[]models.TableStatus{models.TableFree}, models.TableReserved,
		map[string]any{"reserved_for": reservedFor})
	if err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: table is not FREE", ErrConflict)
		}
		return nil, err
	}
	return s.Get(ctx, businessID, tableID)
}

// Release drops a reservation back to FREE.
func (s *TableService) Release(ctx context.Context, businessID, tableID uuid.UUID) (*models.Table, error) {
	if _, err := s.Get(ctx, businessID, tableID); err != nil {
		return nil, err
	}
	err := s.Repo.TransitionTable(ctx, businessID, tableID,
		[]models.TableStatus{models.TableReserved}, models.TableFree,
		map[string]any{"reserved_for": ""})
	if err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: table is not RESERVED", ErrConflict)
		}
		return nil, err
	}
	return s.Get(ctx, businessID, tableID)
}

// StartCleaning flips a FREE table to CLEANING; FinishCleaning returns it.
func (s *TableService) StartCleaning(ctx context.Context, businessID, tableID uuid.UUID) (*models.Table, error) {
	if _, err := s.Get(ctx, businessID, tableID); err != nil {
		return nil, err
	}
	err := s.Repo.TransitionTable(ctx, businessID, tableID,
		[]models.TableStatus{models.TableFree}, models.TableCleaning, nil)
	if err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: table is not FREE", ErrConflict)
		}
		return nil, err
	}
	return s.Get(ctx, businessID, tableID)
}

func (s *TableService) FinishCleaning(ctx context.Context, businessID, tableID uuid.UUID) (*models.Table, error) {
	if _, err := s.Get(ctx, businessID, tableID); err != nil {
		return nil, err
	}
	err := s.Repo.TransitionTable(ctx, businessID, tableID,
		[]models.TableStatus{models.TableCleaning}, models.TableFree, nil)
	if err != nil {
		if errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: table is not CLEANING", ErrConflict)
		}
		return nil, err
	}
	return s.Get(ctx, businessID, tableID)
}

// VerifyPinAndGetOrder re-enters an occupied table. The PIN check is
// constant-time and the failure message never says which part was wrong. An
// OCCUPIED table with no active order is an inconsistency left by out-of-band
// edits; it self-heals back to FREE instead of hard-failing.
func (s *TableService) VerifyPinAndGetOrder(ctx context.Context, businessID, tableID uuid.UUID, pin string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "table.verify_pin", "table_id", tableID)

	table, err := s.Get(ctx, businessID, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != models.TableOccupied {
		return nil, fmt.Errorf("%w: table is %s, not OCCUPIED", ErrInvalidState, table.Status)
	}

	order, err := s.Repo.ActiveOrderForTable(ctx, businessID, tableID)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("occupied_table_without_order_healed")
			if healErr := s.Repo.TransitionTable(ctx, businessID, tableID,
				[]models.TableStatus{models.TableOccupied}, models.TableFree,
				map[string]any{"pin": ""}); healErr != nil && !errors.Is(healErr, repo.ErrRaced) {
				l.Error("self_heal_failed", "error", healErr)
			}
			return nil, fmt.Errorf("%w: no active order for table", ErrNotFound)
		}
		return nil, err
	}

	if !hash.CheckPin(table.Pin, pin) {
		return nil, fmt.Errorf("%w: invalid table pin", ErrValidation)
	}
	return order, nil
}
