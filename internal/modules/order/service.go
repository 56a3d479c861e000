package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pipeline"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
)

// Service defines order business logic.
type Service interface {
	// ListOrders is restricted to the store owner: orders carry customer
	// contact details.
	ListOrders(ctx context.Context, caller auth.CallerID, storeID string, f Filter) ([]*Order, error)
}

type service struct {
	repo  Repository
	guard pipeline.Guard
}

func NewService(repo Repository, guard pipeline.Guard) Service {
	return &service{repo: repo, guard: guard}
}

func (s *service) ListOrders(ctx context.Context, caller auth.CallerID, storeID string, f Filter) ([]*Order, error) {
	if err := s.guard.AuthorizeMutation(ctx, caller, storeID); err != nil {
		return nil, err
	}
	sid, err := uuid.Parse(storeID)
	if err != nil {
		return nil, apperr.Fieldf("storeId", "Store id")
	}
	return s.repo.ListByStore(ctx, sid, f)
}
