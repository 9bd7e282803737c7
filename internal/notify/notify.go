// Package notify fans state-transition events out to the role-scoped terminal
// groups. Dispatch is fire-and-forget: a slow or empty audience never blocks
// or fails the operation that produced the event.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesapos/mesapos/internal/models"
)

type Audience string

const (
	AudienceKitchen   Audience = "kitchen"
	AudienceBar       Audience = "bar"
	AudienceWaiter    Audience = "waiter"
	AudienceCashier   Audience = "cashier"
	AudienceDashboard Audience = "dashboard"
	AudienceBusiness  Audience = "business"
	AudienceTables    Audience = "tables"
)

// Audiences lists every group a sink may subscribe to.
var Audiences = []Audience{
	AudienceKitchen, AudienceBar, AudienceWaiter, AudienceCashier,
	AudienceDashboard, AudienceBusiness, AudienceTables,
}

type EventType string

const (
	EventOrderSentKitchen EventType = "order.sent.kitchen"
	EventOrderSentBar     EventType = "order.sent.bar"
	EventOrderSent        EventType = "order.sent"
	EventItemStatus       EventType = "item.status"
	EventOrderPaid        EventType = "order.paid"
	EventOrderCancelled   EventType = "order.cancelled"
	EventStockLow         EventType = "stock.low"
)

// routes maps each event type to its audience groups. Route is the single
// pure function deciding fan-out; dispatchers only deliver.
var routes = map[EventType][]Audience{
	EventOrderSentKitchen: {AudienceKitchen},
	EventOrderSentBar:     {AudienceBar},
	EventOrderSent:        {AudienceBusiness},
	EventItemStatus:       {AudienceKitchen, AudienceBar, AudienceWaiter, AudienceCashier, AudienceDashboard},
	EventOrderPaid:        {AudienceBusiness, AudienceTables, AudienceCashier, AudienceDashboard},
	EventOrderCancelled:   {AudienceKitchen, AudienceBar, AudienceBusiness},
	EventStockLow:         {AudienceDashboard},
}

func Route(t EventType) []Audience {
	return routes[t]
}

type Event struct {
	Type       EventType `json:"type"`
	BusinessID uuid.UUID `json:"business_id"`
	At         time.Time `json:"at"`
	Payload    any       `json:"payload"`
}

// Dispatcher is the notification sink the core components call. Dispatch must
// return promptly regardless of delivery outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

type SentItem struct {
	ItemID   uuid.UUID          `json:"item_id"`
	Name     string             `json:"name"`
	Quantity int                `json:"quantity"`
	Type     models.ProductType `json:"type"`
	Note     string             `json:"note,omitempty"`
}

type OrderSentPayload struct {
	OrderID     uuid.UUID  `json:"order_id"`
	TableID     uuid.UUID  `json:"table_id"`
	TableNumber int        `json:"table_number"`
	Items       []SentItem `json:"items"`
}

type ItemStatusPayload struct {
	ItemID  uuid.UUID         `json:"item_id"`
	OrderID uuid.UUID         `json:"order_id"`
	Status  models.ItemStatus `json:"status"`
}

type OrderPaidPayload struct {
	Order   *models.Order `json:"order"`
	TableID uuid.UUID     `json:"table_id"`
}

type OrderCancelledPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	TableID uuid.UUID `json:"table_id"`
}

type StockLowPayload struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	MinStock  decimal.Decimal `json:"min_stock"`
}

// NewEvent stamps an event with the emission time.
func NewEvent(t EventType, businessID uuid.UUID, payload any) Event {
	return Event{Type: t, BusinessID: businessID, At: time.Now().UTC(), Payload: payload}
}

// Multi fans one event out to several dispatchers (hub plus broker bridge).
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, ev Event) {
	for _, d := range m {
		d.Dispatch(ctx, ev)
	}
}

// Discard drops everything; used where no sink is configured.
type Discard struct{}

func (Discard) Dispatch(context.Context, Event) {}
