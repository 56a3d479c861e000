package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/httpx"
)

// Request payloads validate presence and shape only. Whether referenced ids
// exist in the same store is checked by the repositories.

type ImageInput struct {
	URL               string `json:"url"`
	ExternalReference string `json:"externalReference"`
}

func (in ImageInput) validate() error {
	if strings.TrimSpace(in.URL) == "" {
		return apperr.Invalid("images.url", "Image url is required")
	}
	if strings.TrimSpace(in.ExternalReference) == "" {
		return apperr.Invalid("images.externalReference", "Image reference is required")
	}
	return nil
}

type ProductRequest struct {
	httpx.Body

	Name       string       `json:"name"`
	Price      *float64     `json:"price"`
	CategoryID string       `json:"categoryId"`
	ColorID    string       `json:"colorId"`
	SizeID     string       `json:"sizeId"`
	IsFeatured bool         `json:"isFeatured"`
	IsArchived bool         `json:"isArchived"`
	Images     []ImageInput `json:"images"`
}

// Validate checks fields in a fixed order and reports the first failure.
func (r ProductRequest) Validate() error {
	if err := r.BodyErr(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("name", "Name is required")
	}
	if r.Price == nil {
		return apperr.Invalid("price", "Price is required")
	}
	if *r.Price <= 0 {
		return apperr.Invalid("price", "Price must be greater than 0")
	}
	if err := requireID("categoryId", "Category", r.CategoryID); err != nil {
		return err
	}
	if err := requireID("colorId", "Color", r.ColorID); err != nil {
		return err
	}
	if err := requireID("sizeId", "Size", r.SizeID); err != nil {
		return err
	}
	if len(r.Images) == 0 {
		return apperr.Invalid("images", "Images are required")
	}
	for _, img := range r.Images {
		if err := img.validate(); err != nil {
			return err
		}
	}
	return nil
}

// product builds the row to persist. Validate must have passed.
func (r ProductRequest) product(storeID uuid.UUID) *Product {
	p := &Product{
		ID:         uuid.New(),
		StoreID:    storeID,
		Name:       strings.TrimSpace(r.Name),
		Price:      *r.Price,
		CategoryID: uuid.MustParse(r.CategoryID),
		ColorID:    uuid.MustParse(r.ColorID),
		SizeID:     uuid.MustParse(r.SizeID),
		IsFeatured: r.IsFeatured,
		IsArchived: r.IsArchived,
	}
	p.Images = newImages(r.Images)
	return p
}

type BillboardRequest struct {
	httpx.Body

	Label string      `json:"label"`
	Image *ImageInput `json:"image"`
}

func (r BillboardRequest) Validate() error {
	if err := r.BodyErr(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Label) == "" {
		return apperr.Invalid("label", "Label is required")
	}
	if r.Image == nil {
		return apperr.Invalid("image", "Image is required")
	}
	return r.Image.validate()
}

type CategoryRequest struct {
	httpx.Body

	Name        string `json:"name"`
	BillboardID string `json:"billboardId"`
}

func (r CategoryRequest) Validate() error {
	if err := r.BodyErr(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("name", "Name is required")
	}
	return requireID("billboardId", "Billboard", r.BillboardID)
}

type AttributeRequest struct {
	httpx.Body

	Name  string `json:"name"`
	Value string `json:"value"`

	kind AttributeKind
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (r AttributeRequest) Validate() error {
	if err := r.BodyErr(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("name", "Name is required")
	}
	if strings.TrimSpace(r.Value) == "" {
		return apperr.Invalid("value", "Value is required")
	}
	if r.kind == KindColor && !hexColor.MatchString(r.Value) {
		return apperr.Invalid("value", "Value must be a hex color code")
	}
	return nil
}

func requireID(field, label, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperr.Invalid(field, label+" is required")
	}
	if _, err := uuid.Parse(v); err != nil {
		return apperr.Fieldf(field, label)
	}
	return nil
}

func newImages(in []ImageInput) []Image {
	out := make([]Image, 0, len(in))
	for _, img := range in {
		out = append(out, Image{ID: uuid.New(), URL: img.URL, ExternalReference: img.ExternalReference})
	}
	return out
}

func imageRefs(images []Image) []string {
	refs := make([]string, 0, len(images))
	for _, img := range images {
		refs = append(refs, img.ExternalReference)
	}
	return refs
}
