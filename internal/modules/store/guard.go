package store

import (
	"context"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
)

// OwnershipGuard authorizes mutations by checking that the caller owns the
// target store. A missing store and a store owned by someone else produce the
// same Forbidden error.
type OwnershipGuard struct{ repo Repository }

func NewOwnershipGuard(repo Repository) *OwnershipGuard { return &OwnershipGuard{repo: repo} }

func (g *OwnershipGuard) AuthorizeMutation(ctx context.Context, caller auth.CallerID, storeID string) error {
	if caller == "" {
		return apperr.Unauthenticated()
	}
	owned, err := g.repo.IsOwner(ctx, storeID, string(caller))
	if err != nil {
		return apperr.Internal("store.authorize", err)
	}
	if !owned {
		return apperr.Forbidden()
	}
	return nil
}
