package order

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/httpx"
)

// Handler exposes order HTTP endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.RequireCaller).Get("/stores/{storeId}/orders", h.listOrders) // ?isPaid=true
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var f Filter
	if v := r.URL.Query().Get("isPaid"); v != "" {
		paid, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Error(w, r, h.log, "order.list", apperr.Invalid("isPaid", "isPaid must be a boolean"))
			return
		}
		f.IsPaid = &paid
	}
	orders, err := h.service.ListOrders(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "storeId"), f)
	if err != nil {
		httpx.Error(w, r, h.log, "order.list", err)
		return
	}
	httpx.Respond(w, http.StatusOK, orders)
}
