package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/database"
)

var (
	categoryColumns  = []string{"id", "store_id", "billboard_id", "name", "created_at", "updated_at"}
	attributeColumns = []string{"id", "store_id", "name", "value", "created_at", "updated_at"}
)

const billboardSelect = `SELECT id, store_id, label, created_at, updated_at FROM billboards`

type billboardRepo struct{ db *sqlx.DB }

func NewBillboardRepository(db *sqlx.DB) BillboardRepository { return &billboardRepo{db: db} }

func (r *billboardRepo) List(ctx context.Context, storeID uuid.UUID) ([]*Billboard, error) {
	billboards := []*Billboard{}
	err := r.db.SelectContext(ctx, &billboards, billboardSelect+` WHERE store_id=$1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, database.Classify("billboard.list", "billboard", err)
	}
	if err := loadBillboardImages(ctx, r.db, billboards); err != nil {
		return nil, database.Classify("billboard.list", "billboard", err)
	}
	return billboards, nil
}

func (r *billboardRepo) Get(ctx context.Context, storeID, id uuid.UUID) (*Billboard, error) {
	b, err := getBillboard(ctx, r.db, storeID, id)
	if err != nil {
		return nil, database.Classify("billboard.get", "billboard", err)
	}
	return b, nil
}

func (r *billboardRepo) ImageRefs(ctx context.Context, storeID, id uuid.UUID) ([]string, error) {
	b, err := r.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if b.Image == nil {
		return nil, nil
	}
	return []string{b.Image.ExternalReference}, nil
}

func (r *billboardRepo) CheckDeletable(ctx context.Context, storeID, id uuid.UUID) error {
	var used bool
	err := r.db.QueryRowxContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE billboard_id=$1 AND store_id=$2)`, id, storeID).Scan(&used)
	if err != nil {
		return database.Classify("billboard.delete", "billboard", err)
	}
	if used {
		return apperr.Constraint(database.CodeForeignKeyViolation, "billboard is used by a category", nil)
	}
	return nil
}

func (r *billboardRepo) Create(ctx context.Context, b *Billboard) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO billboards (id, store_id, label) VALUES ($1,$2,$3)`, b.ID, b.StoreID, b.Label)
		if err != nil {
			return err
		}
		if err := insertImages(ctx, tx, "billboard_id", b.ID, []Image{*b.Image}); err != nil {
			return err
		}
		return reloadBillboard(ctx, tx, b)
	})
	return database.Classify("billboard.create", "billboard", err)
}

func (r *billboardRepo) Update(ctx context.Context, b *Billboard) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE billboards SET label=$1, updated_at=NOW()
			WHERE id=$2 AND store_id=$3
			RETURNING created_at, updated_at`,
			b.Label, b.ID, b.StoreID).Scan(&b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE billboard_id=$1`, b.ID); err != nil {
			return err
		}
		if err := insertImages(ctx, tx, "billboard_id", b.ID, []Image{*b.Image}); err != nil {
			return err
		}
		return reloadBillboard(ctx, tx, b)
	})
	return database.Classify("billboard.update", "billboard", err)
}

// Delete fails with a constraint violation while a category still points
// at the billboard; the images are then left in place too.
func (r *billboardRepo) Delete(ctx context.Context, storeID, id uuid.UUID) (*Billboard, error) {
	var b *Billboard
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		if b, err = getBillboard(ctx, tx, storeID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE billboard_id=$1`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM billboards WHERE id=$1 AND store_id=$2`, id, storeID)
		return err
	})
	if err != nil {
		return nil, database.Classify("billboard.delete", "billboard", err)
	}
	return b, nil
}

func getBillboard(ctx context.Context, q sqlx.QueryerContext, storeID, id uuid.UUID) (*Billboard, error) {
	b := &Billboard{}
	if err := sqlx.GetContext(ctx, q, b, billboardSelect+` WHERE id=$1 AND store_id=$2`, id, storeID); err != nil {
		return nil, err
	}
	if err := loadBillboardImages(ctx, q, []*Billboard{b}); err != nil {
		return nil, err
	}
	return b, nil
}

func reloadBillboard(ctx context.Context, q sqlx.QueryerContext, b *Billboard) error {
	stored, err := getBillboard(ctx, q, b.StoreID, b.ID)
	if err != nil {
		return err
	}
	*b = *stored
	return nil
}

func loadBillboardImages(ctx context.Context, q sqlx.QueryerContext, billboards []*Billboard) error {
	if len(billboards) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(billboards))
	for _, b := range billboards {
		ids = append(ids, b.ID)
	}
	images, err := imagesFor(ctx, q, "billboard_id", ids)
	if err != nil {
		return err
	}
	for _, b := range billboards {
		if imgs := images[b.ID]; len(imgs) > 0 {
			img := imgs[0]
			b.Image = &img
		}
	}
	return nil
}

type categoryRepo struct{ db *sqlx.DB }

func NewCategoryRepository(db *sqlx.DB) CategoryRepository { return &categoryRepo{db: db} }

const categorySelect = `SELECT id, store_id, billboard_id, name, created_at, updated_at FROM categories`

func (r *categoryRepo) List(ctx context.Context, storeID uuid.UUID) ([]*Category, error) {
	categories := []*Category{}
	err := r.db.SelectContext(ctx, &categories, categorySelect+` WHERE store_id=$1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, database.Classify("category.list", "category", err)
	}
	return categories, nil
}

func (r *categoryRepo) Get(ctx context.Context, storeID, id uuid.UUID) (*Category, error) {
	c := &Category{}
	err := r.db.GetContext(ctx, c, categorySelect+` WHERE id=$1 AND store_id=$2`, id, storeID)
	if err != nil {
		return nil, database.Classify("category.get", "category", err)
	}
	return c, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *Category) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := checkBillboard(ctx, tx, c); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
			INSERT INTO categories (id, store_id, billboard_id, name) VALUES ($1,$2,$3,$4)
			RETURNING created_at, updated_at`,
			c.ID, c.StoreID, c.BillboardID, c.Name).Scan(&c.CreatedAt, &c.UpdatedAt)
	})
	return database.Classify("category.create", "category", err)
}

func (r *categoryRepo) Update(ctx context.Context, c *Category) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := checkBillboard(ctx, tx, c); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
			UPDATE categories SET name=$1, billboard_id=$2, updated_at=NOW()
			WHERE id=$3 AND store_id=$4
			RETURNING created_at, updated_at`,
			c.Name, c.BillboardID, c.ID, c.StoreID).Scan(&c.CreatedAt, &c.UpdatedAt)
	})
	return database.Classify("category.update", "category", err)
}

// Delete is rejected by the products foreign key while any product still
// belongs to the category.
func (r *categoryRepo) Delete(ctx context.Context, storeID, id uuid.UUID) (*Category, error) {
	c := &Category{}
	err := r.db.GetContext(ctx, c, `
		DELETE FROM categories WHERE id=$1 AND store_id=$2
		RETURNING id, store_id, billboard_id, name, created_at, updated_at`, id, storeID)
	if err != nil {
		return nil, database.Classify("category.delete", "category", err)
	}
	return c, nil
}

func checkBillboard(ctx context.Context, tx *sqlx.Tx, c *Category) error {
	var ok bool
	err := tx.QueryRowxContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM billboards WHERE id=$1 AND store_id=$2)`, c.BillboardID, c.StoreID).Scan(&ok)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Constraint(database.CodeForeignKeyViolation, "category references a billboard outside its store", nil)
	}
	return nil
}

type attributeRepo struct {
	db   *sqlx.DB
	kind AttributeKind
}

// NewAttributeRepository returns the repository for sizes or colors.
func NewAttributeRepository(db *sqlx.DB, kind AttributeKind) AttributeRepository {
	return &attributeRepo{db: db, kind: kind}
}

func (r *attributeRepo) Kind() AttributeKind { return r.kind }

func (r *attributeRepo) op(action string) string { return string(r.kind) + "." + action }

func (r *attributeRepo) List(ctx context.Context, storeID uuid.UUID) ([]*Attribute, error) {
	attrs := []*Attribute{}
	query := fmt.Sprintf(`SELECT id, store_id, name, value, created_at, updated_at FROM %s
		WHERE store_id=$1 ORDER BY created_at DESC`, r.kind.table())
	if err := r.db.SelectContext(ctx, &attrs, query, storeID); err != nil {
		return nil, database.Classify(r.op("list"), string(r.kind), err)
	}
	return attrs, nil
}

func (r *attributeRepo) Get(ctx context.Context, storeID, id uuid.UUID) (*Attribute, error) {
	a := &Attribute{}
	query := fmt.Sprintf(`SELECT id, store_id, name, value, created_at, updated_at FROM %s
		WHERE id=$1 AND store_id=$2`, r.kind.table())
	if err := r.db.GetContext(ctx, a, query, id, storeID); err != nil {
		return nil, database.Classify(r.op("get"), string(r.kind), err)
	}
	return a, nil
}

func (r *attributeRepo) Create(ctx context.Context, a *Attribute) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, store_id, name, value) VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`, r.kind.table())
	err := r.db.QueryRowxContext(ctx, query, a.ID, a.StoreID, a.Name, a.Value).Scan(&a.CreatedAt, &a.UpdatedAt)
	return database.Classify(r.op("create"), string(r.kind), err)
}

func (r *attributeRepo) Update(ctx context.Context, a *Attribute) error {
	query := fmt.Sprintf(`UPDATE %s SET name=$1, value=$2, updated_at=NOW()
		WHERE id=$3 AND store_id=$4
		RETURNING created_at, updated_at`, r.kind.table())
	err := r.db.QueryRowxContext(ctx, query, a.Name, a.Value, a.ID, a.StoreID).Scan(&a.CreatedAt, &a.UpdatedAt)
	return database.Classify(r.op("update"), string(r.kind), err)
}

func (r *attributeRepo) Delete(ctx context.Context, storeID, id uuid.UUID) (*Attribute, error) {
	a := &Attribute{}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id=$1 AND store_id=$2
		RETURNING id, store_id, name, value, created_at, updated_at`, r.kind.table())
	if err := r.db.GetContext(ctx, a, query, id, storeID); err != nil {
		return nil, database.Classify(r.op("delete"), string(r.kind), err)
	}
	return a, nil
}
