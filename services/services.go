// Package services holds the transactional domain logic behind the HTTP
// handlers and Kafka consumers.
package services

import (
	"context"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// EventPublisher receives order events once the writing transaction has
// committed. A nil publisher disables events.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// ProductCache is notified when a product row changes so cached reads are
// dropped. A nil cache disables invalidation.
type ProductCache interface {
	InvalidateProduct(ctx context.Context, productID int64) error
}

// internalErr leaves classified errors alone and marks the rest internal.
func internalErr(op string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(op, err)
}
