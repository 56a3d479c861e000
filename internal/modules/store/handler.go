package store

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pkg/httpx"
)

// Handler exposes store HTTP endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the store routes on r. Nested catalog routes are
// registered by their own modules under /stores/{storeId}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.RequireCaller).Post("/stores", h.createStore)
	r.With(auth.RequireCaller).Get("/stores", h.listStores)
	r.Get("/stores/{storeId}", h.getStore)
	r.With(auth.RequireCaller).Patch("/stores/{storeId}", h.renameStore)
	r.With(auth.RequireCaller).Delete("/stores/{storeId}", h.deleteStore)
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	st, err := h.service.CreateStore(r.Context(), auth.CallerFromContext(r.Context()), req)
	if err != nil {
		httpx.Error(w, r, h.log, "store.create", err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		httpx.Error(w, r, h.log, "store.list", err)
		return
	}
	httpx.Respond(w, http.StatusOK, stores)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetStore(r.Context(), chi.URLParam(r, "storeId"))
	if err != nil {
		httpx.Error(w, r, h.log, "store.get", err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}

func (h *Handler) renameStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	httpx.DecodeDeferred(r, &req, &req.Body)
	st, err := h.service.RenameStore(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "storeId"), req)
	if err != nil {
		httpx.Error(w, r, h.log, "store.rename", err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.DeleteStore(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "storeId"))
	if err != nil {
		httpx.Error(w, r, h.log, "store.delete", err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}
