// Package states holds the transition tables for the order, item and table
// state machines. Every entry point goes through the same guard functions so
// no operation can skip states.
package states

import (
	"strings"

	"github.com/mesapos/mesapos/internal/models"
)

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderReady, models.OrderCancelled},
	models.OrderReady:     {models.OrderServed, models.OrderPaid, models.OrderCancelled},
	models.OrderServed:    {models.OrderPaid, models.OrderCancelled},
	models.OrderPaid:      {},
	models.OrderCancelled: {},
}

var itemTransitions = map[models.ItemStatus][]models.ItemStatus{
	models.ItemPending:   {models.ItemPreparing, models.ItemReady, models.ItemCancelled},
	models.ItemPreparing: {models.ItemReady, models.ItemCancelled},
	models.ItemReady:     {models.ItemServed, models.ItemCancelled},
	models.ItemServed:    {},
	models.ItemCancelled: {},
}

var tableTransitions = map[models.TableStatus][]models.TableStatus{
	models.TableFree:     {models.TableOccupied, models.TableReserved, models.TableCleaning},
	models.TableOccupied: {models.TableFree, models.TableCleaning},
	models.TableReserved: {models.TableOccupied, models.TableFree},
	models.TableCleaning: {models.TableFree},
}

func contains[S ~string](list []S, s S) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func OrderCan(from, to models.OrderStatus) bool {
	return contains(orderTransitions[from], to)
}

func ItemCan(from, to models.ItemStatus) bool {
	return contains(itemTransitions[from], to)
}

func TableCan(from, to models.TableStatus) bool {
	return contains(tableTransitions[from], to)
}

func ValidOrderStatus(s models.OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

func ValidItemStatus(s models.ItemStatus) bool {
	_, ok := itemTransitions[s]
	return ok
}

// OrderNext lists the legal targets from a state, for error messages.
func OrderNext(from models.OrderStatus) string {
	return describe(orderTransitions[from])
}

func ItemNext(from models.ItemStatus) string {
	return describe(itemTransitions[from])
}

func describe[S ~string](list []S) string {
	if len(list) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

var itemProgress = map[models.ItemStatus]int{
	models.ItemPending:   0,
	models.ItemPreparing: 1,
	models.ItemReady:     2,
	models.ItemServed:    3,
}

var progressOrder = []models.OrderStatus{
	models.OrderPending, models.OrderPreparing, models.OrderReady, models.OrderServed,
}

// AggregateOrderStatus derives an order's status from its items: the minimum
// progress across non-cancelled items. An order with only cancelled items is
// CANCELLED.
func AggregateOrderStatus(items []models.OrderItem) models.OrderStatus {
	min := -1
	for _, it := range items {
		if it.Status == models.ItemCancelled {
			continue
		}
		p := itemProgress[it.Status]
		if min == -1 || p < min {
			min = p
		}
	}
	if min == -1 {
		return models.OrderCancelled
	}
	return progressOrder[min]
}
