package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "PENDING"
	ItemPreparing ItemStatus = "PREPARING"
	ItemReady     ItemStatus = "READY"
	ItemServed    ItemStatus = "SERVED"
	ItemCancelled ItemStatus = "CANCELLED"
)

type TableStatus string

const (
	TableFree     TableStatus = "FREE"
	TableOccupied TableStatus = "OCCUPIED"
	TableReserved TableStatus = "RESERVED"
	TableCleaning TableStatus = "CLEANING"
)

type PaymentMethod string

const (
	PayCash     PaymentMethod = "CASH"
	PayCard     PaymentMethod = "CARD"
	PayTransfer PaymentMethod = "TRANSFER"
	PayMixed    PaymentMethod = "MIXED"
)

type ProductType string

const (
	ProductFood  ProductType = "FOOD"
	ProductDrink ProductType = "DRINK"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleWaiter     Role = "waiter"
	RoleKitchen    Role = "kitchen"
	RoleBar        Role = "bar"
	RoleCashier    Role = "cashier"
)

// Base carries the uuid key every entity uses.
type Base struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
}

func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Business is the tenant root. Every other entity is scoped by BusinessID and
// must never be read or written across that boundary.
type Business struct {
	Base
	Name      string          `gorm:"size:120;not null" json:"name"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax_rate"`
	Plan      string          `gorm:"size:32;default:'basic'" json:"plan"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type User struct {
	Base
	BusinessID   uuid.UUID `gorm:"type:uuid;index:idx_user_biz_name,unique,priority:1;not null" json:"business_id"`
	Username     string    `gorm:"size:50;index:idx_user_biz_name,unique,priority:2;not null" json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	Pin          string    `gorm:"size:8" json:"-"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	Base
	BusinessID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"business_id"`
	Name        string          `gorm:"size:120;not null" json:"name"`
	Description string          `gorm:"size:500" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Type        ProductType     `gorm:"size:8;not null;default:'FOOD'" json:"type"`
	Category    string          `gorm:"size:60" json:"category,omitempty"`
	Active      bool            `gorm:"default:true" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecipeItem maps one sellable product to one ingredient product and the
// quantity consumed per sold unit. A product with no recipe rows is decremented
// from stock directly.
type RecipeItem struct {
	Base
	BusinessID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"business_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	IngredientID uuid.UUID       `gorm:"type:uuid;index;not null" json:"ingredient_id"`
	QtyPerUnit   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty_per_unit"`
}

type Table struct {
	Base
	BusinessID  uuid.UUID   `gorm:"type:uuid;index:idx_table_biz_num,unique,priority:1;not null" json:"business_id"`
	Number      int         `gorm:"index:idx_table_biz_num,unique,priority:2;not null" json:"number"`
	Capacity    int         `gorm:"default:4" json:"capacity"`
	Status      TableStatus `gorm:"size:16;not null;default:'FREE'" json:"status"`
	Pin         string      `gorm:"size:8" json:"-"`
	ReservedFor string      `gorm:"size:120" json:"reserved_for,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Order struct {
	Base
	BusinessID uuid.UUID       `gorm:"type:uuid;index;not null" json:"business_id"`
	TableID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"table_id"`
	UserID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Status     OrderStatus     `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	Tax        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"tax"`
	Tip        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tip"`
	Total      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	// Version guards the settlement read-modify-write; every totals or status
	// write bumps it and is conditioned on the value previously read.
	Version   uint       `gorm:"not null;default:0" json:"-"`
	Note      string     `gorm:"size:300" json:"note,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ActiveOrderStatuses are the statuses that keep a table occupied.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderReady, OrderServed}

type OrderItem struct {
	Base
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Name      string          `gorm:"size:120;not null" json:"name"`
	Type      ProductType     `gorm:"size:8;not null" json:"type"`
	Quantity  int             `gorm:"not null;check:quantity>0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	Status    ItemStatus      `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	Note      string          `gorm:"size:200" json:"note,omitempty"`
}

// Payment rows are append-only; an order's total paid is the sum of its rows.
type Payment struct {
	Base
	BusinessID uuid.UUID       `gorm:"type:uuid;index;not null" json:"business_id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ShiftID    *uuid.UUID      `gorm:"type:uuid;index" json:"shift_id,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Method     PaymentMethod   `gorm:"size:16;not null" json:"method"`
	Reference  string          `gorm:"size:120" json:"reference,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Inventory struct {
	Base
	BusinessID uuid.UUID       `gorm:"type:uuid;index:idx_inv_biz_prod,unique,priority:1;not null" json:"business_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;index:idx_inv_biz_prod,unique,priority:2;not null" json:"product_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
	MinStock   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"min_stock"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

// Shift is a cashier's cash-drawer session. CASH payments and manual cash
// movements created while it is open count toward its reconciliation.
type Shift struct {
	Base
	BusinessID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"business_id"`
	UserID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Status       ShiftStatus     `gorm:"size:8;not null;default:'OPEN'" json:"status"`
	OpeningFloat decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"opening_float"`
	ExpectedCash decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"expected_cash"`
	CountedCash  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"counted_cash"`
	Difference   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"difference"`
	OpenedAt     time.Time       `json:"opened_at"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
}

type MovementDirection string

const (
	MovementIn  MovementDirection = "IN"
	MovementOut MovementDirection = "OUT"
)

type CashMovement struct {
	Base
	BusinessID uuid.UUID         `gorm:"type:uuid;index;not null" json:"business_id"`
	ShiftID    uuid.UUID         `gorm:"type:uuid;index;not null" json:"shift_id"`
	Direction  MovementDirection `gorm:"size:4;not null" json:"direction"`
	Concept    string            `gorm:"size:200;not null" json:"concept"`
	Amount     decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt  time.Time         `json:"created_at"`
}

type AuditLog struct {
	Base
	BusinessID uuid.UUID `gorm:"type:uuid;index;not null" json:"business_id"`
	UserID     uuid.UUID `gorm:"type:uuid" json:"user_id"`
	Action     string    `gorm:"size:60;not null" json:"action"`
	Entity     string    `gorm:"size:40" json:"entity"`
	EntityID   uuid.UUID `gorm:"type:uuid" json:"entity_id"`
	Detail     string    `gorm:"size:500" json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// All lists every entity for AutoMigrate.
func All() []any {
	return []any{
		&Business{}, &User{}, &Product{}, &RecipeItem{}, &Table{},
		&Order{}, &OrderItem{}, &Payment{}, &Inventory{},
		&Shift{}, &CashMovement{}, &AuditLog{},
	}
}
