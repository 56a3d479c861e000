package order

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/database"
)

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListByStore(ctx context.Context, storeID uuid.UUID, f Filter) ([]*Order, error) {
	where := sq.Eq{"store_id": storeID.String()}
	if f.IsPaid != nil {
		where["is_paid"] = *f.IsPaid
	}
	query, args, err := database.Builder.
		Select("id", "store_id", "is_paid", "phone", "address", "created_at", "updated_at").
		From("orders").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, apperr.Internal("order.list", err)
	}
	orders := []*Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, database.Classify("order.list", "order", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	byID := make(map[uuid.UUID]*Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Items = []OrderItem{}
	}
	query, args, err = database.Builder.
		Select("oi.id", "oi.order_id", "oi.product_id", "p.name AS product_name", "p.price").
		From("order_items oi").
		Join("products p ON p.id = oi.product_id").
		Where(sq.Eq{"oi.order_id": ids}).
		ToSql()
	if err != nil {
		return nil, apperr.Internal("order.list", err)
	}
	items := []OrderItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, database.Classify("order.list", "order", err)
	}
	for _, it := range items {
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	for _, o := range orders {
		o.total()
	}
	return orders, nil
}
