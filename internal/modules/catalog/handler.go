package catalog

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/httpx"
)

// Handler exposes the catalog HTTP endpoints of a store.
type Handler struct {
	products   *ProductService
	billboards *BillboardService
	categories *CategoryService
	sizes      *AttributeService
	colors     *AttributeService
	log        *zap.Logger
}

func NewHandler(products *ProductService, billboards *BillboardService, categories *CategoryService,
	sizes, colors *AttributeService, log *zap.Logger) *Handler {
	return &Handler{
		products:   products,
		billboards: billboards,
		categories: categories,
		sizes:      sizes,
		colors:     colors,
		log:        log,
	}
}

// RegisterRoutes mounts one route group per entity kind under
// /stores/{storeId}. Reads are public; writes require a caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stores/{storeId}/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)
		r.With(auth.RequireCaller).Post("/", h.createProduct)
		r.With(auth.RequireCaller).Patch("/{id}", h.updateProduct)
		r.With(auth.RequireCaller).Delete("/{id}", h.deleteProduct)
	})
	r.Route("/stores/{storeId}/billboards", func(r chi.Router) {
		r.Get("/", h.listBillboards)
		r.Get("/{id}", h.getBillboard)
		r.With(auth.RequireCaller).Post("/", h.createBillboard)
		r.With(auth.RequireCaller).Patch("/{id}", h.updateBillboard)
		r.With(auth.RequireCaller).Delete("/{id}", h.deleteBillboard)
	})
	r.Route("/stores/{storeId}/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Get("/{id}", h.getCategory)
		r.With(auth.RequireCaller).Post("/", h.createCategory)
		r.With(auth.RequireCaller).Patch("/{id}", h.updateCategory)
		r.With(auth.RequireCaller).Delete("/{id}", h.deleteCategory)
	})
	r.Route("/stores/{storeId}/sizes", attributeRoutes(h.sizes, h.log))
	r.Route("/stores/{storeId}/colors", attributeRoutes(h.colors, h.log))
}

// write sends the result of a service call, or its error.
func (h *Handler) write(w http.ResponseWriter, r *http.Request, op string, v interface{}, err error) {
	if err != nil {
		httpx.Error(w, r, h.log, op, err)
		return
	}
	httpx.Respond(w, http.StatusOK, v)
}

func caller(r *http.Request) auth.CallerID { return auth.CallerFromContext(r.Context()) }

func storeID(r *http.Request) string { return chi.URLParam(r, "storeId") }

func entityID(r *http.Request) string { return chi.URLParam(r, "id") }

// parseProductFilter reads the optional product list filters. Filters that
// are absent or empty are left unset.
func parseProductFilter(q url.Values) (ProductFilter, error) {
	var f ProductFilter
	ids := []struct {
		name  string
		label string
		dst   **uuid.UUID
	}{
		{"categoryId", "Category", &f.CategoryID},
		{"colorId", "Color", &f.ColorID},
		{"sizeId", "Size", &f.SizeID},
	}
	for _, p := range ids {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.Fieldf(p.name, p.label)
		}
		*p.dst = &id
	}
	flags := []struct {
		name string
		dst  **bool
	}{
		{"isFeatured", &f.IsFeatured},
		{"isArchived", &f.IsArchived},
	}
	for _, p := range flags {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.Invalid(p.name, p.name+" must be a boolean")
		}
		*p.dst = &b
	}
	return f, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseProductFilter(r.URL.Query())
	if err != nil {
		httpx.Error(w, r, h.log, "product.list", err)
		return
	}
	products, err := h.products.List(r.Context(), storeID(r), f)
	h.write(w, r, "product.list", products, err)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), storeID(r), entityID(r))
	h.write(w, r, "product.get", p, err)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	p, err := h.products.Create(r.Context(), caller(r), storeID(r), req)
	h.write(w, r, "product.create", p, err)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	p, err := h.products.Update(r.Context(), caller(r), storeID(r), entityID(r), req)
	h.write(w, r, "product.update", p, err)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Delete(r.Context(), caller(r), storeID(r), entityID(r))
	h.write(w, r, "product.delete", p, err)
}

func (h *Handler) listBillboards(w http.ResponseWriter, r *http.Request) {
	b, err := h.billboards.List(r.Context(), storeID(r))
	h.write(w, r, "billboard.list", b, err)
}

func (h *Handler) getBillboard(w http.ResponseWriter, r *http.Request) {
	b, err := h.billboards.Get(r.Context(), storeID(r), entityID(r))
	h.write(w, r, "billboard.get", b, err)
}

func (h *Handler) createBillboard(w http.ResponseWriter, r *http.Request) {
	var req BillboardRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	b, err := h.billboards.Create(r.Context(), caller(r), storeID(r), req)
	h.write(w, r, "billboard.create", b, err)
}

func (h *Handler) updateBillboard(w http.ResponseWriter, r *http.Request) {
	var req BillboardRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	b, err := h.billboards.Update(r.Context(), caller(r), storeID(r), entityID(r), req)
	h.write(w, r, "billboard.update", b, err)
}

func (h *Handler) deleteBillboard(w http.ResponseWriter, r *http.Request) {
	b, err := h.billboards.Delete(r.Context(), caller(r), storeID(r), entityID(r))
	h.write(w, r, "billboard.delete", b, err)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.List(r.Context(), storeID(r))
	h.write(w, r, "category.list", c, err)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Get(r.Context(), storeID(r), entityID(r))
	h.write(w, r, "category.get", c, err)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	c, err := h.categories.Create(r.Context(), caller(r), storeID(r), req)
	h.write(w, r, "category.create", c, err)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	c, err := h.categories.Update(r.Context(), caller(r), storeID(r), entityID(r), req)
	h.write(w, r, "category.update", c, err)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Delete(r.Context(), caller(r), storeID(r), entityID(r))
	h.write(w, r, "category.delete", c, err)
}

// attributeRoutes serves sizes and colors, which only differ by table and
// value validation.
func attributeRoutes(s *AttributeService, log *zap.Logger) func(chi.Router) {
	write := func(w http.ResponseWriter, r *http.Request, op string, v interface{}, err error) {
		if err != nil {
			httpx.Error(w, r, log, s.kind()+"."+op, err)
			return
		}
		httpx.Respond(w, http.StatusOK, v)
	}
	decode := func(r *http.Request) AttributeRequest {
		var req AttributeRequest
		httpx.DecodeDeferred(r, &req, &req.Body)
		return req
	}
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			v, err := s.List(r.Context(), storeID(r))
			write(w, r, "list", v, err)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			v, err := s.Get(r.Context(), storeID(r), entityID(r))
			write(w, r, "get", v, err)
		})
		r.With(auth.RequireCaller).Post("/", func(w http.ResponseWriter, r *http.Request) {
			req := decode(r)
			v, err := s.Create(r.Context(), caller(r), storeID(r), req)
			write(w, r, "create", v, err)
		})
		r.With(auth.RequireCaller).Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
			req := decode(r)
			v, err := s.Update(r.Context(), caller(r), storeID(r), entityID(r), req)
			write(w, r, "update", v, err)
		})
		r.With(auth.RequireCaller).Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			v, err := s.Delete(r.Context(), caller(r), storeID(r), entityID(r))
			write(w, r, "delete", v, err)
		})
	}
}
