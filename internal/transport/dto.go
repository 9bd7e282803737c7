package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Note      string    `json:"note,omitempty"`
}

type CreateOrderRequest struct {
	TableID uuid.UUID          `json:"table_id"`
	Items   []OrderItemRequest `json:"items"`
	Tip     decimal.Decimal    `json:"tip"`
	Note    string             `json:"note,omitempty"`
}

type UpdateItemsRequest struct {
	Items         []OrderItemRequest `json:"items"`
	Tip           decimal.Decimal    `json:"tip"`
	SupervisorPin string             `json:"supervisor_pin,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type UpdateItemStatusRequest struct {
	Status string `json:"status"`
}

type PayRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

type CreateTableRequest struct {
	Number   int `json:"number"`
	Capacity int `json:"capacity"`
}

type ReserveTableRequest struct {
	ReservedFor string `json:"reserved_for"`
}

type VerifyTablePinRequest struct {
	Pin string `json:"pin"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Type        string          `json:"type"`
	Category    string          `json:"category,omitempty"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

type RecipeItemRequest struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
}

type ReplaceRecipeRequest struct {
	Items []RecipeItemRequest `json:"items"`
}

type StockLineRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Qty       decimal.Decimal `json:"qty"`
}

type AdjustStockRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	MinStock  decimal.Decimal `json:"min_stock"`
	Reason    string          `json:"reason,omitempty"`
}

type OpenShiftRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type CashMovementRequest struct {
	Direction string          `json:"direction"`
	Concept   string          `json:"concept"`
	Amount    decimal.Decimal `json:"amount"`
}

type CloseShiftRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash"`
}

type LoginRequest struct {
	BusinessID uuid.UUID `json:"business_id"`
	Username   string    `json:"username"`
	Password   string    `json:"password"`
}

type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Pin      string `json:"pin,omitempty"`
}
