package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/media"
	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pipeline"
)

const callerHeader = "X-Test-Caller"

type fixture struct {
	t       *testing.T
	store   *memStore
	sizes   *memAttributes
	colors  *memAttributes
	media   *mockMedia
	router  http.Handler
	storeID uuid.UUID
	// foreign is a store owned by somebody else.
	foreign     uuid.UUID
	billboardID uuid.UUID
	categoryID  uuid.UUID
	colorID     uuid.UUID
	sizeID      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:          t,
		store:      newMemStore(),
		sizes:      newMemAttributes(KindSize),
		colors:     newMemAttributes(KindColor),
		media:      &mockMedia{},
		storeID:    uuid.New(),
		foreign:    uuid.New(),
		categoryID: uuid.New(),
		colorID:    uuid.New(),
		sizeID:     uuid.New(),
	}
	billboardID := uuid.New()
	f.billboardID = billboardID
	f.store.billboards[billboardID] = &Billboard{
		ID: billboardID, StoreID: f.storeID, Label: "Summer",
		Image: &Image{ID: uuid.New(), URL: "https://cdn/bb.png", ExternalReference: "bb_1"},
	}
	f.store.categories[f.categoryID] = &Category{ID: f.categoryID, StoreID: f.storeID, BillboardID: billboardID, Name: "Shirts"}
	f.colors.items[f.colorID] = &Attribute{ID: f.colorID, StoreID: f.storeID, Name: "Red", Value: "#ff0000"}
	f.sizes.items[f.sizeID] = &Attribute{ID: f.sizeID, StoreID: f.storeID, Name: "Large", Value: "L"}

	log := zap.NewNop()
	guard := ownerGuard{owners: map[string]auth.CallerID{
		f.storeID.String(): "user_1",
		f.foreign.String(): "user_2",
	}}
	p := pipeline.New(guard, f.media, log)
	h := NewHandler(
		NewProductService(memProducts{f.store}, p, nil, log),
		NewBillboardService(memBillboards{f.store}, p),
		NewCategoryService(memCategories{f.store}, p),
		NewAttributeService(f.sizes, p),
		NewAttributeService(f.colors, p),
		log,
	)
	r := chi.NewRouter()
	r.Use(auth.Middleware(auth.ResolverFunc(func(r *http.Request) (auth.CallerID, bool) {
		id := r.Header.Get(callerHeader)
		return auth.CallerID(id), id != ""
	})))
	h.RegisterRoutes(r)
	f.router = r
	return f
}

func (f *fixture) do(caller, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != "" {
		req.Header.Set(callerHeader, caller)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) path(kind string, id ...uuid.UUID) string {
	p := fmt.Sprintf("/stores/%s/%s", f.storeID, kind)
	if len(id) > 0 {
		p += "/" + id[0].String()
	}
	return p
}

func (f *fixture) productBody(refs ...string) string {
	images := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		images = append(images, map[string]string{"url": "https://cdn/" + ref + ".png", "externalReference": ref})
	}
	b, _ := json.Marshal(map[string]interface{}{
		"name":       "Tee",
		"price":      19.5,
		"categoryId": f.categoryID,
		"colorId":    f.colorID,
		"sizeId":     f.sizeID,
		"images":     images,
	})
	return string(b)
}

// seedProduct stores a product with one image per ref.
func (f *fixture) seedProduct(featured bool, refs ...string) *Product {
	p := &Product{
		ID: uuid.New(), StoreID: f.storeID, Name: "Seeded", Price: 10,
		CategoryID: f.categoryID, ColorID: f.colorID, SizeID: f.sizeID, IsFeatured: featured,
	}
	for _, ref := range refs {
		p.Images = append(p.Images, Image{ID: uuid.New(), URL: "https://cdn/" + ref, ExternalReference: ref})
	}
	f.store.products[p.ID] = p
	return p
}

func TestMutationsByNonOwnerAreForbidden(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_1")
	var billboardID uuid.UUID
	for id := range f.store.billboards {
		billboardID = id
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create product", http.MethodPost, f.path("products"), f.productBody("img_9")},
		{"update product", http.MethodPatch, f.path("products", p.ID), f.productBody("img_9")},
		{"delete product", http.MethodDelete, f.path("products", p.ID), ""},
		{"create product with invalid payload", http.MethodPost, f.path("products"), `{}`},
		{"update product with malformed body", http.MethodPatch, f.path("products", p.ID), `{"name":`},
		{"create color with malformed body", http.MethodPost, f.path("colors"), `not json`},
		{"update billboard", http.MethodPatch, f.path("billboards", billboardID), `{"label":"x","image":{"url":"u","externalReference":"r"}}`},
		{"delete billboard", http.MethodDelete, f.path("billboards", billboardID), ""},
		{"delete category", http.MethodDelete, f.path("categories", f.categoryID), ""},
		{"update size", http.MethodPatch, f.path("sizes", f.sizeID), `{"name":"S","value":"S"}`},
		{"delete color", http.MethodDelete, f.path("colors", f.colorID), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do("user_2", tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Forbidden\n", rec.Body.String())
		})
	}
	assert.Zero(t, f.store.writes)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestMutationWithoutCallerIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_1")

	rec := f.do("", http.MethodDelete, f.path("products", p.ID), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do("", http.MethodPost, f.path("products"), `not json`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Zero(t, f.store.writes)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	valid := func(mut func(m map[string]interface{})) string {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(f.productBody("img_1")), &m))
		mut(m)
		b, _ := json.Marshal(m)
		return string(b)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", valid(func(m map[string]interface{}) { delete(m, "name") }), "Name is required"},
		{"missing price", valid(func(m map[string]interface{}) { delete(m, "price") }), "Price is required"},
		{"zero price", valid(func(m map[string]interface{}) { m["price"] = 0 }), "Price must be greater than 0"},
		{"missing category", valid(func(m map[string]interface{}) { delete(m, "categoryId") }), "Category is required"},
		{"malformed category", valid(func(m map[string]interface{}) { m["categoryId"] = "abc" }), "Category is invalid"},
		{"missing color", valid(func(m map[string]interface{}) { delete(m, "colorId") }), "Color is required"},
		{"missing size", valid(func(m map[string]interface{}) { delete(m, "sizeId") }), "Size is required"},
		{"no images", valid(func(m map[string]interface{}) { m["images"] = []interface{}{} }), "Images are required"},
		{"image without reference", valid(func(m map[string]interface{}) {
			m["images"] = []interface{}{map[string]string{"url": "https://cdn/x.png"}}
		}), "Image reference is required"},
		{"malformed body", `{"name":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do("user_1", http.MethodPost, f.path("products"), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want+"\n", rec.Body.String())
		})
	}
	assert.Empty(t, f.store.products)
	assert.Zero(t, f.store.writes)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do("user_1", http.MethodPost, f.path("products"), f.productBody("img_1", "img_2"))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, f.storeID, got.StoreID)
	assert.Equal(t, []string{"img_1", "img_2"}, imageRefs(got.Images))
	assert.Contains(t, f.store.products, got.ID)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestUpdateProductReplacesImages(t *testing.T) {
	tests := []struct {
		name   string
		result media.DeleteResult
	}{
		{"media cleanup succeeds", media.DeleteResult{Deleted: 1}},
		{"media cleanup fails", media.DeleteResult{Failed: []string{"img_1"}, Err: errors.New("provider down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.seedProduct(false, "img_1")
			f.media.On("DeleteMany", []string{"img_1"}).Return(tt.result).Once()

			rec := f.do("user_1", http.MethodPatch, f.path("products", p.ID), f.productBody("img_3", "img_4"))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{"img_3", "img_4"}, imageRefs(f.store.products[p.ID].Images))
			assert.Equal(t, "Tee", f.store.products[p.ID].Name)
			f.media.AssertExpectations(t)
		})
	}
}

func TestUpdateMissingProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do("user_1", http.MethodPatch, f.path("products", uuid.New()), f.productBody("img_1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestDeleteProductKeepsRowWhenMediaCleanupFails(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_2")
	before := f.do("", http.MethodGet, f.path("products", p.ID), "").Body.String()
	f.media.On("DeleteMany", []string{"img_2"}).
		Return(media.DeleteResult{Failed: []string{"img_2"}}).Once()

	rec := f.do("user_1", http.MethodDelete, f.path("products", p.ID), "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "External media store failure\n", rec.Body.String())
	after := f.do("", http.MethodGet, f.path("products", p.ID), "")
	require.Equal(t, http.StatusOK, after.Code)
	assert.JSONEq(t, before, after.Body.String())
	f.media.AssertExpectations(t)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_2", "img_3")
	f.media.On("DeleteMany", []string{"img_2", "img_3"}).Return(media.DeleteResult{Deleted: 2}).Once()

	rec := f.do("user_1", http.MethodDelete, f.path("products", p.ID), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), p.ID.String())
	assert.Equal(t, http.StatusNotFound, f.do("", http.MethodGet, f.path("products", p.ID), "").Code)
}

func TestDeleteReferencedCategoryIsConstraintViolation(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_1")

	rec := f.do("user_1", http.MethodDelete, f.path("categories", f.categoryID), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "23503\n", rec.Body.String())
	assert.Contains(t, f.store.categories, f.categoryID)
	assert.Contains(t, f.store.products, p.ID)
}

func TestDeleteBillboardInUseKeepsMedia(t *testing.T) {
	f := newFixture(t)

	rec := f.do("user_1", http.MethodDelete, f.path("billboards", f.billboardID), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "23503\n", rec.Body.String())
	require.Contains(t, f.store.billboards, f.billboardID)
	assert.Equal(t, "bb_1", f.store.billboards[f.billboardID].Image.ExternalReference)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestDeleteOrderedProductKeepsMedia(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_1")
	f.store.ordered[p.ID] = true

	rec := f.do("user_1", http.MethodDelete, f.path("products", p.ID), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "23503\n", rec.Body.String())
	assert.Contains(t, f.store.products, p.ID)
	assert.Zero(t, f.store.writes)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestUpdateProductWithForeignCategoryKeepsMedia(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(false, "img_1")
	otherCategory := uuid.New()
	f.store.categories[otherCategory] = &Category{ID: otherCategory, StoreID: f.foreign, BillboardID: uuid.New(), Name: "Theirs"}

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(f.productBody("img_5")), &body))
	body["categoryId"] = otherCategory
	b, _ := json.Marshal(body)

	rec := f.do("user_1", http.MethodPatch, f.path("products", p.ID), string(b))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "23503\n", rec.Body.String())
	assert.Equal(t, []string{"img_1"}, imageRefs(f.store.products[p.ID].Images))
	assert.Zero(t, f.store.writes)
	f.media.AssertNotCalled(t, "DeleteMany", mock.Anything)
}

func TestListFeaturedProductsIsPublic(t *testing.T) {
	f := newFixture(t)
	featured := f.seedProduct(true, "img_1")
	f.seedProduct(false, "img_2")
	archived := f.seedProduct(true, "img_3")
	archived.IsArchived = true

	for _, caller := range []string{"", "user_1", "user_2"} {
		rec := f.do(caller, http.MethodGet, f.path("products")+"?isFeatured=true", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1, "caller %q", caller)
		assert.Equal(t, featured.ID, got[0].ID)
		assert.True(t, got[0].IsFeatured)
	}
}

func TestListProductsRejectsBadFilters(t *testing.T) {
	f := newFixture(t)

	rec := f.do("", http.MethodGet, f.path("products")+"?isFeatured=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "isFeatured must be a boolean\n", rec.Body.String())

	rec = f.do("", http.MethodGet, f.path("products")+"?sizeId=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Size is invalid\n", rec.Body.String())
}

func TestBillboardLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do("user_1", http.MethodPost, f.path("billboards"), `{"label":"Winter"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Image is required\n", rec.Body.String())

	rec = f.do("user_1", http.MethodPost, f.path("billboards"),
		`{"label":"Winter","image":{"url":"https://cdn/w.png","externalReference":"bb_w"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var b Billboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	f.media.On("DeleteMany", []string{"bb_w"}).Return(media.DeleteResult{Failed: []string{"bb_w"}}).Once()
	rec = f.do("user_1", http.MethodPatch, f.path("billboards", b.ID),
		`{"label":"Winter sale","image":{"url":"https://cdn/w2.png","externalReference":"bb_w2"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bb_w2", f.store.billboards[b.ID].Image.ExternalReference)

	f.media.On("DeleteMany", []string{"bb_w2"}).Return(media.DeleteResult{Deleted: 1}).Once()
	rec = f.do("user_1", http.MethodDelete, f.path("billboards", b.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, f.store.billboards, b.ID)
	f.media.AssertExpectations(t)
}

func TestAttributeValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		kind string
		body string
		code int
		want string
	}{
		{"sizes", `{"value":"XL"}`, http.StatusBadRequest, "Name is required\n"},
		{"sizes", `{"name":"Extra large"}`, http.StatusBadRequest, "Value is required\n"},
		{"sizes", `{"name":"Extra large","value":"XL"}`, http.StatusOK, `"value":"XL"`},
		{"colors", `{"name":"Blue","value":"blue"}`, http.StatusBadRequest, "Value must be a hex color code\n"},
		{"colors", `{"name":"Blue","value":"#0000ff"}`, http.StatusOK, `"value":"#0000ff"`},
	}
	for _, tt := range tests {
		t.Run(tt.kind+" "+tt.body, func(t *testing.T) {
			rec := f.do("user_1", http.MethodPost, f.path(tt.kind), tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCategoryRequiresBillboard(t *testing.T) {
	f := newFixture(t)

	rec := f.do("user_1", http.MethodPost, f.path("categories"), `{"name":"Hats"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Billboard is required\n", rec.Body.String())
}
