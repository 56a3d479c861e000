package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// ListByStore returns the store's orders with their items, newest first.
	ListByStore(ctx context.Context, storeID uuid.UUID, f Filter) ([]*Order, error)
}
