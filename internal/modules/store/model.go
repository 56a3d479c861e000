package store

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/httpx"
)

// Store is the root of tenant isolation. Every catalog entity belongs to
// exactly one store, and only its owner may change it.
type Store struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// StoreRequest holds the data for creating or renaming a store.
type StoreRequest struct {
	httpx.Body

	Name string `json:"name"`
}

func (r StoreRequest) Validate() error {
	if err := r.BodyErr(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("name", "Name is required")
	}
	return nil
}
