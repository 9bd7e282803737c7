package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/search"
	"github.com/mesapos/mesapos/internal/transport"
)

// CatalogService owns products and recipes. Search is optional; when a client
// is configured, product writes are mirrored into the index best-effort.
type CatalogService struct {
	Repo   *repo.GormRepo
	Search *search.Client
}

func (s *CatalogService) CreateProduct(ctx context.Context, businessID uuid.UUID, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	pType := models.ProductType(req.Type)
	if pType != models.ProductFood && pType != models.ProductDrink {
		return nil, fmt.Errorf("%w: type must be FOOD or DRINK", ErrValidation)
	}

	product := &models.Product{
		BusinessID:  businessID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Type:        pType,
		Category:    req.Category,
		Active:      true,
	}
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.reindex(ctx, product)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, businessID, productID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: product", ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx, businessID, activeOnly)
}

func (s *CatalogService) PatchProduct(ctx context.Context, businessID, productID uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	updates := map[string]any{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	product, err := s.Repo.PatchProduct(ctx, businessID, productID, updates)
	if err != nil {
		if repo.IsNotFound(err) || errors.Is(err, repo.ErrRaced) {
			return nil, fmt.Errorf("%w: product", ErrNotFound)
		}
		return nil, err
	}
	s.reindex(ctx, product)
	return product, nil
}

// ReplaceRecipe swaps the full ingredient list of a sellable product.
func (s *CatalogService) ReplaceRecipe(ctx context.Context, businessID, productID uuid.UUID, req transport.ReplaceRecipeRequest) ([]models.RecipeItem, error) {
	if _, err := s.GetProduct(ctx, businessID, productID); err != nil {
		return nil, err
	}
	items := make([]models.RecipeItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.IngredientID == uuid.Nil {
			return nil, fmt.Errorf("%w: ingredient_id required", ErrValidation)
		}
		if !it.QtyPerUnit.IsPositive() {
			return nil, fmt.Errorf("%w: qty_per_unit must be > 0", ErrValidation)
		}
		if _, err := s.GetProduct(ctx, businessID, it.IngredientID); err != nil {
			return nil, fmt.Errorf("%w: ingredient %s", ErrNotFound, it.IngredientID)
		}
		items = append(items, models.RecipeItem{
			IngredientID: it.IngredientID,
			QtyPerUnit:   it.QtyPerUnit,
		})
	}
	if err := s.Repo.ReplaceRecipe(ctx, businessID, productID, items); err != nil {
		return nil, err
	}
	return s.Repo.RecipeFor(ctx, businessID, []uuid.UUID{productID})
}

// SearchProducts resolves index hits back to rows so prices are always fresh.
func (s *CatalogService) SearchProducts(ctx context.Context, businessID uuid.UUID, query string, from, size int) (int64, []models.Product, error) {
	if s.Search == nil {
		return 0, nil, fmt.Errorf("%w: search is not configured", ErrValidation)
	}
	if query == "" {
		return 0, nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	total, ids, err := s.Search.Search(ctx, businessID, query, from, size)
	if err != nil {
		return 0, nil, err
	}
	products, err := s.Repo.GetProductsByIDs(ctx, businessID, ids)
	if err != nil {
		return 0, nil, err
	}
	return total, products, nil
}

func (s *CatalogService) reindex(ctx context.Context, product *models.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexProduct(ctx, product); err != nil {
		logging.FromContext(ctx).Warn("product_index_failed", "product_id", product.ID, "error", err)
	}
}
