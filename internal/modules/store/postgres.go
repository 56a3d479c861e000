package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/database"
)

const storeColumns = `id, owner_id, name, created_at, updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, s *Store) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO stores (id, owner_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		s.ID, s.OwnerID, s.Name).Scan(&s.CreatedAt, &s.UpdatedAt)
	return database.Classify("store.create", "store", err)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("store")
	}
	s := &Store{}
	err = r.db.GetContext(ctx, s, `SELECT `+storeColumns+` FROM stores WHERE id=$1`, uid)
	if err != nil {
		return nil, database.Classify("store.get", "store", err)
	}
	return s, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]*Store, error) {
	stores := []*Store{}
	err := r.db.SelectContext(ctx, &stores,
		`SELECT `+storeColumns+` FROM stores WHERE owner_id=$1 ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, database.Classify("store.list", "store", err)
	}
	return stores, nil
}

func (r *postgresRepo) IsOwner(ctx context.Context, id, ownerID string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	var owned bool
	err = r.db.QueryRowxContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM stores WHERE id=$1 AND owner_id=$2)`, uid, ownerID).Scan(&owned)
	return owned, err
}

func (r *postgresRepo) Rename(ctx context.Context, id, ownerID, name string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("store")
	}
	s := &Store{}
	err = r.db.GetContext(ctx, s, `
		UPDATE stores SET name=$1, updated_at=NOW()
		WHERE id=$2 AND owner_id=$3
		RETURNING `+storeColumns, name, uid, ownerID)
	if err != nil {
		return nil, database.Classify("store.rename", "store", err)
	}
	return s, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id, ownerID string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("store")
	}
	s := &Store{}
	err = r.db.GetContext(ctx, s, `
		DELETE FROM stores WHERE id=$1 AND owner_id=$2
		RETURNING `+storeColumns, uid, ownerID)
	if err != nil {
		return nil, database.Classify("store.delete", "store", err)
	}
	return s, nil
}
