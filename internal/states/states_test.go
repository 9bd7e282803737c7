package states

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesapos/mesapos/internal/models"
)

func TestOrderCan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderPending, models.OrderPreparing, true},
		{models.OrderPending, models.OrderCancelled, true},
		{models.OrderPending, models.OrderReady, false},
		{models.OrderPending, models.OrderPaid, false},
		{models.OrderPreparing, models.OrderReady, true},
		{models.OrderPreparing, models.OrderPending, false},
		{models.OrderReady, models.OrderServed, true},
		{models.OrderReady, models.OrderPaid, true},
		{models.OrderServed, models.OrderPaid, true},
		{models.OrderServed, models.OrderReady, false},
		{models.OrderPaid, models.OrderCancelled, false},
		{models.OrderCancelled, models.OrderPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OrderCan(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestItemCan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to models.ItemStatus
		want     bool
	}{
		{models.ItemPending, models.ItemPreparing, true},
		{models.ItemPending, models.ItemReady, true},
		{models.ItemPending, models.ItemServed, false},
		{models.ItemPreparing, models.ItemReady, true},
		{models.ItemReady, models.ItemPreparing, false},
		{models.ItemReady, models.ItemServed, true},
		{models.ItemServed, models.ItemCancelled, false},
		{models.ItemCancelled, models.ItemPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ItemCan(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTableCan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to models.TableStatus
		want     bool
	}{
		{models.TableFree, models.TableOccupied, true},
		{models.TableFree, models.TableReserved, true},
		{models.TableReserved, models.TableOccupied, true},
		{models.TableReserved, models.TableCleaning, false},
		{models.TableOccupied, models.TableFree, true},
		{models.TableOccupied, models.TableReserved, false},
		{models.TableCleaning, models.TableFree, true},
		{models.TableCleaning, models.TableOccupied, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableCan(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestValidStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidOrderStatus(models.OrderPaid))
	assert.False(t, ValidOrderStatus("DELIVERED"))
	assert.True(t, ValidItemStatus(models.ItemCancelled))
	assert.False(t, ValidItemStatus(""))
}

func TestOrderNext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PREPARING, CANCELLED", OrderNext(models.OrderPending))
	assert.Equal(t, "none (terminal state)", OrderNext(models.OrderPaid))
}

func TestAggregateOrderStatus(t *testing.T) {
	t.Parallel()

	item := func(s models.ItemStatus) models.OrderItem {
		return models.OrderItem{Status: s}
	}

	tests := []struct {
		name  string
		items []models.OrderItem
		want  models.OrderStatus
	}{
		{
			"all pending",
			[]models.OrderItem{item(models.ItemPending), item(models.ItemPending)},
			models.OrderPending,
		},
		{
			"slowest item rules",
			[]models.OrderItem{item(models.ItemServed), item(models.ItemPreparing)},
			models.OrderPreparing,
		},
		{
			"all ready",
			[]models.OrderItem{item(models.ItemReady), item(models.ItemReady)},
			models.OrderReady,
		},
		{
			"all served",
			[]models.OrderItem{item(models.ItemServed)},
			models.OrderServed,
		},
		{
			"cancelled items excluded",
			[]models.OrderItem{item(models.ItemCancelled), item(models.ItemReady)},
			models.OrderReady,
		},
		{
			"all cancelled",
			[]models.OrderItem{item(models.ItemCancelled), item(models.ItemCancelled)},
			models.OrderCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateOrderStatus(tt.items))
		})
	}
}
