package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Image is a stored media object owned by exactly one product or billboard.
// ExternalReference identifies the object in the media store.
type Image struct {
	ID                uuid.UUID `json:"id" db:"id"`
	URL               string    `json:"url" db:"url"`
	ExternalReference string    `json:"externalReference" db:"external_reference"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// Product is a sellable item in a store's catalog.
type Product struct {
	ID         uuid.UUID `json:"id" db:"id"`
	StoreID    uuid.UUID `json:"storeId" db:"store_id"`
	Name       string    `json:"name" db:"name"`
	Price      float64   `json:"price" db:"price"`
	CategoryID uuid.UUID `json:"categoryId" db:"category_id"`
	ColorID    uuid.UUID `json:"colorId" db:"color_id"`
	SizeID     uuid.UUID `json:"sizeId" db:"size_id"`
	IsFeatured bool      `json:"isFeatured" db:"is_featured"`
	IsArchived bool      `json:"isArchived" db:"is_archived"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	Images   []Image    `json:"images" db:"-"`
	Category *Category  `json:"category,omitempty" db:"-"`
	Color    *Attribute `json:"color,omitempty" db:"-"`
	Size     *Attribute `json:"size,omitempty" db:"-"`
}

// Billboard is a labelled banner with a single image. Categories point at one.
type Billboard struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StoreID   uuid.UUID `json:"storeId" db:"store_id"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Image *Image `json:"image" db:"-"`
}

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	StoreID     uuid.UUID `json:"storeId" db:"store_id"`
	BillboardID uuid.UUID `json:"billboardId" db:"billboard_id"`
	Name        string    `json:"name" db:"name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Attribute is a named value products are classified by. Sizes and colors
// share this shape and live in separate tables.
type Attribute struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StoreID   uuid.UUID `json:"storeId" db:"store_id"`
	Name      string    `json:"name" db:"name"`
	Value     string    `json:"value" db:"value"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AttributeKind tells the size and color tables apart.
type AttributeKind string

const (
	KindSize  AttributeKind = "size"
	KindColor AttributeKind = "color"
)

func (k AttributeKind) table() string {
	if k == KindColor {
		return "colors"
	}
	return "sizes"
}

// ProductFilter narrows a product listing. Unset fields are left out of the
// query entirely.
type ProductFilter struct {
	CategoryID *uuid.UUID
	ColorID    *uuid.UUID
	SizeID     *uuid.UUID
	IsFeatured *bool
	// IsArchived nil hides archived products.
	IsArchived *bool
}
