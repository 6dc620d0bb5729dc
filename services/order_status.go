package services

import (
	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"
)

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending: {
		models.OrderStatusAwaitingPayment, models.OrderStatusPaid, models.OrderStatusProcessing,
		models.OrderStatusCancelled, models.OrderStatusFailed,
	},
	models.OrderStatusAwaitingPayment: {
		models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusCancelled, models.OrderStatusFailed,
	},
	models.OrderStatusPaid: {
		models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusCancelled,
	},
	models.OrderStatusProcessing: {
		models.OrderStatusShipped, models.OrderStatusCancelled,
	},
	models.OrderStatusShipped: {
		models.OrderStatusDelivered,
	},
	models.OrderStatusFailed: {
		models.OrderStatusPending, models.OrderStatusAwaitingPayment, models.OrderStatusPaid, models.OrderStatusCancelled,
	},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

// initialStatuses are the statuses an order may be created with.
var initialStatuses = map[models.OrderStatus]bool{
	models.OrderStatusPending:         true,
	models.OrderStatusAwaitingPayment: true,
	models.OrderStatusPaid:            true,
}

// CanTransition reports whether an order in from may move to to. Staying in
// the same status is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(op string, from, to models.OrderStatus) error {
	if !CanTransition(from, to) {
		return apperr.InvalidTransition(op, string(from), string(to))
	}
	return nil
}

func parseStatus(op, raw string) (models.OrderStatus, error) {
	st, ok := models.NormalizeOrderStatus(raw)
	if !ok {
		return "", apperr.Validation(op, "unknown order status %q", raw)
	}
	return st, nil
}
