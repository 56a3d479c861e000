package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/georgemunganga/storefront-backend/internal/media"
	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/database"
)

// ownerGuard authorizes the stores listed in owners.
type ownerGuard struct{ owners map[string]auth.CallerID }

func (g ownerGuard) AuthorizeMutation(ctx context.Context, caller auth.CallerID, storeID string) error {
	if caller == "" {
		return apperr.Unauthenticated()
	}
	if g.owners[storeID] != caller {
		return apperr.Forbidden()
	}
	return nil
}

type mockMedia struct{ mock.Mock }

func (m *mockMedia) DeleteMany(ctx context.Context, refs []string) media.DeleteResult {
	return m.Called(refs).Get(0).(media.DeleteResult)
}

// memStore is an in-memory catalog shared by the fake repositories so that
// referential rules can be checked across kinds.
type memStore struct {
	products   map[uuid.UUID]*Product
	billboards map[uuid.UUID]*Billboard
	categories map[uuid.UUID]*Category
	// ordered holds products that order items reference.
	ordered map[uuid.UUID]bool
	writes  int
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[uuid.UUID]*Product{},
		billboards: map[uuid.UUID]*Billboard{},
		categories: map[uuid.UUID]*Category{},
		ordered:    map[uuid.UUID]bool{},
	}
}

func cloneProduct(p *Product) *Product {
	c := *p
	c.Images = append([]Image(nil), p.Images...)
	return &c
}

type memProducts struct{ s *memStore }

func (r memProducts) List(ctx context.Context, storeID uuid.UUID, f ProductFilter) ([]*Product, error) {
	out := []*Product{}
	for _, p := range r.s.products {
		if p.StoreID != storeID {
			continue
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured {
			continue
		}
		archived := false
		if f.IsArchived != nil {
			archived = *f.IsArchived
		}
		if p.IsArchived != archived {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (r memProducts) Get(ctx context.Context, storeID, id uuid.UUID) (*Product, error) {
	p, ok := r.s.products[id]
	if !ok || p.StoreID != storeID {
		return nil, apperr.NotFound("product")
	}
	return cloneProduct(p), nil
}

func (r memProducts) ImageRefs(ctx context.Context, storeID, id uuid.UUID) ([]string, error) {
	p, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	return imageRefs(p.Images), nil
}

func (r memProducts) CheckRefs(ctx context.Context, p *Product) error {
	if c, ok := r.s.categories[p.CategoryID]; ok && c.StoreID != p.StoreID {
		return apperr.Constraint(database.CodeForeignKeyViolation, "product references an entity outside its store", nil)
	}
	return nil
}

func (r memProducts) CheckDeletable(ctx context.Context, storeID, id uuid.UUID) error {
	if r.s.ordered[id] {
		return apperr.Constraint(database.CodeForeignKeyViolation, "product is referenced by orders", nil)
	}
	return nil
}

func (r memProducts) Create(ctx context.Context, p *Product) error {
	r.s.writes++
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

func (r memProducts) Update(ctx context.Context, p *Product) error {
	r.s.writes++
	old, ok := r.s.products[p.ID]
	if !ok || old.StoreID != p.StoreID {
		return apperr.NotFound("product")
	}
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, time.Now()
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

func (r memProducts) Delete(ctx context.Context, storeID, id uuid.UUID) (*Product, error) {
	r.s.writes++
	p, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	delete(r.s.products, id)
	return p, nil
}

type memCategories struct{ s *memStore }

func (r memCategories) List(ctx context.Context, storeID uuid.UUID) ([]*Category, error) {
	out := []*Category{}
	for _, c := range r.s.categories {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCategories) Get(ctx context.Context, storeID, id uuid.UUID) (*Category, error) {
	c, ok := r.s.categories[id]
	if !ok || c.StoreID != storeID {
		return nil, apperr.NotFound("category")
	}
	return c, nil
}

func (r memCategories) Create(ctx context.Context, c *Category) error {
	r.s.writes++
	r.s.categories[c.ID] = c
	return nil
}

func (r memCategories) Update(ctx context.Context, c *Category) error {
	r.s.writes++
	if _, err := r.Get(ctx, c.StoreID, c.ID); err != nil {
		return err
	}
	r.s.categories[c.ID] = c
	return nil
}

func (r memCategories) Delete(ctx context.Context, storeID, id uuid.UUID) (*Category, error) {
	r.s.writes++
	c, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return nil, apperr.Constraint(database.CodeForeignKeyViolation, "category violates a relational constraint", nil)
		}
	}
	delete(r.s.categories, id)
	return c, nil
}

type memBillboards struct{ s *memStore }

func (r memBillboards) List(ctx context.Context, storeID uuid.UUID) ([]*Billboard, error) {
	out := []*Billboard{}
	for _, b := range r.s.billboards {
		if b.StoreID == storeID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBillboards) Get(ctx context.Context, storeID, id uuid.UUID) (*Billboard, error) {
	b, ok := r.s.billboards[id]
	if !ok || b.StoreID != storeID {
		return nil, apperr.NotFound("billboard")
	}
	return b, nil
}

func (r memBillboards) ImageRefs(ctx context.Context, storeID, id uuid.UUID) ([]string, error) {
	b, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	return []string{b.Image.ExternalReference}, nil
}

func (r memBillboards) CheckDeletable(ctx context.Context, storeID, id uuid.UUID) error {
	for _, c := range r.s.categories {
		if c.BillboardID == id {
			return apperr.Constraint(database.CodeForeignKeyViolation, "billboard is used by a category", nil)
		}
	}
	return nil
}

func (r memBillboards) Create(ctx context.Context, b *Billboard) error {
	r.s.writes++
	r.s.billboards[b.ID] = b
	return nil
}

func (r memBillboards) Update(ctx context.Context, b *Billboard) error {
	r.s.writes++
	if _, err := r.Get(ctx, b.StoreID, b.ID); err != nil {
		return err
	}
	r.s.billboards[b.ID] = b
	return nil
}

func (r memBillboards) Delete(ctx context.Context, storeID, id uuid.UUID) (*Billboard, error) {
	r.s.writes++
	b, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	for _, c := range r.s.categories {
		if c.BillboardID == id {
			return nil, apperr.Constraint(database.CodeForeignKeyViolation, "billboard violates a relational constraint", nil)
		}
	}
	delete(r.s.billboards, id)
	return b, nil
}

type memAttributes struct {
	kind  AttributeKind
	items map[uuid.UUID]*Attribute
}

func newMemAttributes(kind AttributeKind) *memAttributes {
	return &memAttributes{kind: kind, items: map[uuid.UUID]*Attribute{}}
}

func (r *memAttributes) Kind() AttributeKind { return r.kind }

func (r *memAttributes) List(ctx context.Context, storeID uuid.UUID) ([]*Attribute, error) {
	out := []*Attribute{}
	for _, a := range r.items {
		if a.StoreID == storeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttributes) Get(ctx context.Context, storeID, id uuid.UUID) (*Attribute, error) {
	a, ok := r.items[id]
	if !ok || a.StoreID != storeID {
		return nil, apperr.NotFound(string(r.kind))
	}
	return a, nil
}

func (r *memAttributes) Create(ctx context.Context, a *Attribute) error {
	r.items[a.ID] = a
	return nil
}

func (r *memAttributes) Update(ctx context.Context, a *Attribute) error {
	if _, err := r.Get(ctx, a.StoreID, a.ID); err != nil {
		return err
	}
	r.items[a.ID] = a
	return nil
}

func (r *memAttributes) Delete(ctx context.Context, storeID, id uuid.UUID) (*Attribute, error) {
	a, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	delete(r.items, id)
	return a, nil
}
