package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Every method is scoped by storeID: an entity id from another store is
// reported as not found.

// ProductRepository stores products together with their image collections.
type ProductRepository interface {
	List(ctx context.Context, storeID uuid.UUID, f ProductFilter) ([]*Product, error)
	Get(ctx context.Context, storeID, id uuid.UUID) (*Product, error)
	ImageRefs(ctx context.Context, storeID, id uuid.UUID) ([]string, error)
	// CheckRefs rejects a category, color or size outside the product's store.
	CheckRefs(ctx context.Context, p *Product) error
	// CheckDeletable rejects the delete of a product that orders still reference.
	CheckDeletable(ctx context.Context, storeID, id uuid.UUID) error
	// Create inserts the product and its images in one transaction.
	Create(ctx context.Context, p *Product) error
	// Update rewrites scalar fields and replaces the whole image collection
	// in one transaction.
	Update(ctx context.Context, p *Product) error
	// Delete removes the images and the product in one transaction and
	// returns the product as it was.
	Delete(ctx context.Context, storeID, id uuid.UUID) (*Product, error)
}

type BillboardRepository interface {
	List(ctx context.Context, storeID uuid.UUID) ([]*Billboard, error)
	Get(ctx context.Context, storeID, id uuid.UUID) (*Billboard, error)
	ImageRefs(ctx context.Context, storeID, id uuid.UUID) ([]string, error)
	// CheckDeletable rejects the delete of a billboard that categories still use.
	CheckDeletable(ctx context.Context, storeID, id uuid.UUID) error
	Create(ctx context.Context, b *Billboard) error
	Update(ctx context.Context, b *Billboard) error
	Delete(ctx context.Context, storeID, id uuid.UUID) (*Billboard, error)
}

type CategoryRepository interface {
	List(ctx context.Context, storeID uuid.UUID) ([]*Category, error)
	Get(ctx context.Context, storeID, id uuid.UUID) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, storeID, id uuid.UUID) (*Category, error)
}

// AttributeRepository serves either sizes or colors.
type AttributeRepository interface {
	Kind() AttributeKind
	List(ctx context.Context, storeID uuid.UUID) ([]*Attribute, error)
	Get(ctx context.Context, storeID, id uuid.UUID) (*Attribute, error)
	Create(ctx context.Context, a *Attribute) error
	Update(ctx context.Context, a *Attribute) error
	Delete(ctx context.Context, storeID, id uuid.UUID) (*Attribute, error)
}
