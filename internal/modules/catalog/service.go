package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pipeline"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/cache"
)

// Reads are public and only filter by store. Every write goes through the
// mutation pipeline, which checks ownership before anything else.

func parseStoreID(storeID string) (uuid.UUID, error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return uuid.Nil, apperr.Fieldf("storeId", "Store id")
	}
	return id, nil
}

// parseIDs is used after the guard passed, so a malformed entity id can only
// mean the entity does not exist.
func parseIDs(kind, storeID, id string) (uuid.UUID, uuid.UUID, error) {
	sid, err := uuid.Parse(storeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.NotFound("store")
	}
	eid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.NotFound(kind)
	}
	return sid, eid, nil
}

// ProductService manages products and their image collections.
type ProductService struct {
	repo     ProductRepository
	pipeline *pipeline.Pipeline
	cache    cache.Catalog
	log      *zap.Logger
}

func NewProductService(repo ProductRepository, p *pipeline.Pipeline, c cache.Catalog, log *zap.Logger) *ProductService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ProductService{repo: repo, pipeline: p, cache: c, log: log}
}

// List returns the store's products, newest first, served from the catalog
// cache when possible.
func (s *ProductService) List(ctx context.Context, storeID string, f ProductFilter) ([]*Product, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	key := f.cacheKey()
	cached := s.cache.Get(ctx, sid.String(), key)
	if cached.Hit {
		var products []*Product
		if err := json.Unmarshal(cached.Data, &products); err == nil {
			return products, nil
		}
		s.log.Warn("discarding unreadable catalog cache entry", zap.String("store_id", storeID))
	}

	products, err := s.repo.List(ctx, sid, f)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(products); err == nil {
		s.cache.Set(ctx, sid.String(), key, cached, data)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, storeID, id string) (*Product, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("product")
	}
	return s.repo.Get(ctx, sid, pid)
}

func (s *ProductService) Create(ctx context.Context, caller auth.CallerID, storeID string, req ProductRequest) (*Product, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Product]{
		Op:      "product.create",
		Caller:  caller,
		StoreID: storeID,
		Payload: req,
		Apply: func(ctx context.Context) (*Product, error) {
			sid, err := parseStoreID(storeID)
			if err != nil {
				return nil, err
			}
			p := req.product(sid)
			if err := s.repo.Create(ctx, p); err != nil {
				return nil, err
			}
			return p, nil
		},
	})
}

// Update replaces the product's fields and its whole image collection. The
// previous images are removed from the media store first; if that fails the
// update still goes ahead and the objects are left orphaned.
func (s *ProductService) Update(ctx context.Context, caller auth.CallerID, storeID, id string, req ProductRequest) (*Product, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Product]{
		Op:      "product.update",
		Caller:  caller,
		StoreID: storeID,
		Payload: req,
		Check: func(ctx context.Context) error {
			sid, err := parseStoreID(storeID)
			if err != nil {
				return err
			}
			return s.repo.CheckRefs(ctx, req.product(sid))
		},
		CurrentMedia: func(ctx context.Context) ([]string, error) {
			sid, pid, err := parseIDs("product", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.ImageRefs(ctx, sid, pid)
		},
		Policy: pipeline.BestEffort,
		Apply: func(ctx context.Context) (*Product, error) {
			sid, pid, err := parseIDs("product", storeID, id)
			if err != nil {
				return nil, err
			}
			p := req.product(sid)
			p.ID = pid
			if err := s.repo.Update(ctx, p); err != nil {
				return nil, err
			}
			return p, nil
		},
	})
}

// Delete removes the product only after every image was removed from the
// media store. A product that orders still reference is refused before any
// image is touched.
func (s *ProductService) Delete(ctx context.Context, caller auth.CallerID, storeID, id string) (*Product, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Product]{
		Op:      "product.delete",
		Caller:  caller,
		StoreID: storeID,
		Check: func(ctx context.Context) error {
			sid, pid, err := parseIDs("product", storeID, id)
			if err != nil {
				return err
			}
			return s.repo.CheckDeletable(ctx, sid, pid)
		},
		CurrentMedia: func(ctx context.Context) ([]string, error) {
			sid, pid, err := parseIDs("product", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.ImageRefs(ctx, sid, pid)
		},
		Policy: pipeline.MustSucceed,
		Apply: func(ctx context.Context) (*Product, error) {
			sid, pid, err := parseIDs("product", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.Delete(ctx, sid, pid)
		},
	})
}

func (f ProductFilter) cacheKey() string {
	var b strings.Builder
	b.WriteString("products")
	add := func(name, v string) { fmt.Fprintf(&b, ":%s=%s", name, v) }
	if f.CategoryID != nil {
		add("categoryId", f.CategoryID.String())
	}
	if f.ColorID != nil {
		add("colorId", f.ColorID.String())
	}
	if f.SizeID != nil {
		add("sizeId", f.SizeID.String())
	}
	if f.IsFeatured != nil {
		add("isFeatured", strconv.FormatBool(*f.IsFeatured))
	}
	if f.IsArchived != nil {
		add("isArchived", strconv.FormatBool(*f.IsArchived))
	}
	return b.String()
}

// BillboardService manages billboards and their single image.
type BillboardService struct {
	repo     BillboardRepository
	pipeline *pipeline.Pipeline
}

func NewBillboardService(repo BillboardRepository, p *pipeline.Pipeline) *BillboardService {
	return &BillboardService{repo: repo, pipeline: p}
}

func (s *BillboardService) List(ctx context.Context, storeID string) ([]*Billboard, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, sid)
}

func (s *BillboardService) Get(ctx context.Context, storeID, id string) (*Billboard, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	bid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("billboard")
	}
	return s.repo.Get(ctx, sid, bid)
}

func (s *BillboardService) Create(ctx context.Context, caller auth.CallerID, storeID string, req BillboardRequest) (*Billboard, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Billboard]{
		Op:      "billboard.create",
		Caller:  caller,
		StoreID: storeID,
		Payload: req,
		Apply: func(ctx context.Context) (*Billboard, error) {
			sid, err := parseStoreID(storeID)
			if err != nil {
				return nil, err
			}
			b := req.billboard(sid, uuid.New())
			if err := s.repo.Create(ctx, b); err != nil {
				return nil, err
			}
			return b, nil
		},
	})
}

func (s *BillboardService) Update(ctx context.Context, caller auth.CallerID, storeID, id string, req BillboardRequest) (*Billboard, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Billboard]{
		Op:      "billboard.update",
		Caller:  caller,
		StoreID: storeID,
		Payload: req,
		CurrentMedia: func(ctx context.Context) ([]string, error) {
			sid, bid, err := parseIDs("billboard", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.ImageRefs(ctx, sid, bid)
		},
		Policy: pipeline.BestEffort,
		Apply: func(ctx context.Context) (*Billboard, error) {
			sid, bid, err := parseIDs("billboard", storeID, id)
			if err != nil {
				return nil, err
			}
			b := req.billboard(sid, bid)
			if err := s.repo.Update(ctx, b); err != nil {
				return nil, err
			}
			return b, nil
		},
	})
}

func (s *BillboardService) Delete(ctx context.Context, caller auth.CallerID, storeID, id string) (*Billboard, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Billboard]{
		Op:      "billboard.delete",
		Caller:  caller,
		StoreID: storeID,
		Check: func(ctx context.Context) error {
			sid, bid, err := parseIDs("billboard", storeID, id)
			if err != nil {
				return err
			}
			return s.repo.CheckDeletable(ctx, sid, bid)
		},
		CurrentMedia: func(ctx context.Context) ([]string, error) {
			sid, bid, err := parseIDs("billboard", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.ImageRefs(ctx, sid, bid)
		},
		Policy: pipeline.MustSucceed,
		Apply: func(ctx context.Context) (*Billboard, error) {
			sid, bid, err := parseIDs("billboard", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.Delete(ctx, sid, bid)
		},
	})
}

func (r BillboardRequest) billboard(storeID, id uuid.UUID) *Billboard {
	img := newImages([]ImageInput{*r.Image})[0]
	return &Billboard{ID: id, StoreID: storeID, Label: strings.TrimSpace(r.Label), Image: &img}
}

// CategoryService manages categories. Categories hold no media.
type CategoryService struct {
	repo     CategoryRepository
	pipeline *pipeline.Pipeline
}

func NewCategoryService(repo CategoryRepository, p *pipeline.Pipeline) *CategoryService {
	return &CategoryService{repo: repo, pipeline: p}
}

func (s *CategoryService) List(ctx context.Context, storeID string) ([]*Category, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, sid)
}

func (s *CategoryService) Get(ctx context.Context, storeID, id string) (*Category, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("category")
	}
	return s.repo.Get(ctx, sid, cid)
}

func (s *CategoryService) Create(ctx context.Context, caller auth.CallerID, storeID string, req CategoryRequest) (*Category, error) {
	return s.save(ctx, "category.create", caller, storeID, "", req)
}

func (s *CategoryService) Update(ctx context.Context, caller auth.CallerID, storeID, id string, req CategoryRequest) (*Category, error) {
	return s.save(ctx, "category.update", caller, storeID, id, req)
}

// save creates the category when id is empty and updates it otherwise.
func (s *CategoryService) save(ctx context.Context, op string, caller auth.CallerID, storeID, id string, req CategoryRequest) (*Category, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Category]{
		Op:      op,
		Caller:  caller,
		StoreID: storeID,
		Payload: req,
		Apply: func(ctx context.Context) (*Category, error) {
			c := &Category{Name: strings.TrimSpace(req.Name), BillboardID: uuid.MustParse(req.BillboardID)}
			if id == "" {
				sid, err := parseStoreID(storeID)
				if err != nil {
					return nil, err
				}
				c.ID, c.StoreID = uuid.New(), sid
				return c, s.repo.Create(ctx, c)
			}
			sid, cid, err := parseIDs("category", storeID, id)
			if err != nil {
				return nil, err
			}
			c.ID, c.StoreID = cid, sid
			return c, s.repo.Update(ctx, c)
		},
	})
}

func (s *CategoryService) Delete(ctx context.Context, caller auth.CallerID, storeID, id string) (*Category, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Category]{
		Op:      "category.delete",
		Caller:  caller,
		StoreID: storeID,
		Apply: func(ctx context.Context) (*Category, error) {
			sid, cid, err := parseIDs("category", storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.Delete(ctx, sid, cid)
		},
	})
}

// AttributeService manages sizes or colors, depending on its repository.
type AttributeService struct {
	repo     AttributeRepository
	pipeline *pipeline.Pipeline
}

func NewAttributeService(repo AttributeRepository, p *pipeline.Pipeline) *AttributeService {
	return &AttributeService{repo: repo, pipeline: p}
}

func (s *AttributeService) kind() string { return string(s.repo.Kind()) }

func (s *AttributeService) List(ctx context.Context, storeID string) ([]*Attribute, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, sid)
}

func (s *AttributeService) Get(ctx context.Context, storeID, id string) (*Attribute, error) {
	sid, err := parseStoreID(storeID)
	if err != nil {
		return nil, err
	}
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound(s.kind())
	}
	return s.repo.Get(ctx, sid, aid)
}

func (s *AttributeService) Create(ctx context.Context, caller auth.CallerID, storeID string, req AttributeRequest) (*Attribute, error) {
	return s.save(ctx, caller, storeID, "", req)
}

func (s *AttributeService) Update(ctx context.Context, caller auth.CallerID, storeID, id string, req AttributeRequest) (*Attribute, error) {
	return s.save(ctx, caller, storeID, id, req)
}

func (s *AttributeService) save(ctx context.Context, caller auth.CallerID, storeID, id string, req AttributeRequest) (*Attribute, error) {
	req.kind = s.repo.Kind()
	op := s.kind() + ".create"
	if id != "" {
		op = s.kind() + ".update"
	}
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Attribute]{
		Op:      op,
		Caller:  caller,
		StoreID: storeID,
		Payload: req,
		Apply: func(ctx context.Context) (*Attribute, error) {
			a := &Attribute{Name: strings.TrimSpace(req.Name), Value: strings.TrimSpace(req.Value)}
			if id == "" {
				sid, err := parseStoreID(storeID)
				if err != nil {
					return nil, err
				}
				a.ID, a.StoreID = uuid.New(), sid
				return a, s.repo.Create(ctx, a)
			}
			sid, aid, err := parseIDs(s.kind(), storeID, id)
			if err != nil {
				return nil, err
			}
			a.ID, a.StoreID = aid, sid
			return a, s.repo.Update(ctx, a)
		},
	})
}

func (s *AttributeService) Delete(ctx context.Context, caller auth.CallerID, storeID, id string) (*Attribute, error) {
	return pipeline.Execute(ctx, s.pipeline, pipeline.Mutation[*Attribute]{
		Op:      s.kind() + ".delete",
		Caller:  caller,
		StoreID: storeID,
		Apply: func(ctx context.Context) (*Attribute, error) {
			sid, aid, err := parseIDs(s.kind(), storeID, id)
			if err != nil {
				return nil, err
			}
			return s.repo.Delete(ctx, sid, aid)
		},
	})
}
