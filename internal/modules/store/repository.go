package store

import "context"

// Repository defines store data storage. Owner-scoped methods only match a
// store whose owner is ownerID.
type Repository interface {
	Create(ctx context.Context, s *Store) error
	GetByID(ctx context.Context, id string) (*Store, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Store, error)
	IsOwner(ctx context.Context, id, ownerID string) (bool, error)
	Rename(ctx context.Context, id, ownerID, name string) (*Store, error)
	Delete(ctx context.Context, id, ownerID string) (*Store, error)
}
