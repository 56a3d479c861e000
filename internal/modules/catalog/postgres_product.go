package catalog

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
	"github.com/georgemunganga/storefront-backend/internal/pkg/database"
)

var productColumns = []string{
	"id", "store_id", "name", "price", "category_id", "color_id", "size_id",
	"is_featured", "is_archived", "created_at", "updated_at",
}

type productRepo struct{ db *sqlx.DB }

func NewProductRepository(db *sqlx.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) List(ctx context.Context, storeID uuid.UUID, f ProductFilter) ([]*Product, error) {
	where := sq.Eq{"store_id": storeID.String()}
	if f.CategoryID != nil {
		where["category_id"] = f.CategoryID.String()
	}
	if f.ColorID != nil {
		where["color_id"] = f.ColorID.String()
	}
	if f.SizeID != nil {
		where["size_id"] = f.SizeID.String()
	}
	if f.IsFeatured != nil {
		where["is_featured"] = *f.IsFeatured
	}
	if f.IsArchived != nil {
		where["is_archived"] = *f.IsArchived
	} else {
		where["is_archived"] = false
	}
	query, args, err := database.Builder.
		Select(productColumns...).
		From("products").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, apperr.Internal("product.list", err)
	}

	products := []*Product{}
	if err := sqlx.SelectContext(ctx, r.db, &products, query, args...); err != nil {
		return nil, database.Classify("product.list", "product", err)
	}
	if err := loadProductRelations(ctx, r.db, products); err != nil {
		return nil, database.Classify("product.list", "product", err)
	}
	return products, nil
}

func (r *productRepo) Get(ctx context.Context, storeID, id uuid.UUID) (*Product, error) {
	p, err := getProduct(ctx, r.db, storeID, id)
	if err != nil {
		return nil, database.Classify("product.get", "product", err)
	}
	return p, nil
}

func (r *productRepo) ImageRefs(ctx context.Context, storeID, id uuid.UUID) ([]string, error) {
	var exists bool
	err := r.db.QueryRowxContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id=$1 AND store_id=$2)`, id, storeID).Scan(&exists)
	if err != nil {
		return nil, database.Classify("product.images", "product", err)
	}
	if !exists {
		return nil, apperr.NotFound("product")
	}
	refs := []string{}
	err = r.db.SelectContext(ctx, &refs,
		`SELECT external_reference FROM images WHERE product_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, database.Classify("product.images", "product", err)
	}
	return refs, nil
}

func (r *productRepo) CheckRefs(ctx context.Context, p *Product) error {
	return database.Classify("product.refs", "product", checkProductRefs(ctx, r.db, p))
}

func (r *productRepo) CheckDeletable(ctx context.Context, storeID, id uuid.UUID) error {
	var ordered bool
	err := r.db.QueryRowxContext(ctx, `
		SELECT EXISTS(
		  SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
		  WHERE p.id=$1 AND p.store_id=$2)`, id, storeID).Scan(&ordered)
	if err != nil {
		return database.Classify("product.delete", "product", err)
	}
	if ordered {
		return apperr.Constraint(database.CodeForeignKeyViolation, "product is referenced by orders", nil)
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, p *Product) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := checkProductRefs(ctx, tx, p); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products
			  (id, store_id, name, price, category_id, color_id, size_id, is_featured, is_archived)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, p.StoreID, p.Name, p.Price, p.CategoryID, p.ColorID, p.SizeID,
			p.IsFeatured, p.IsArchived)
		if err != nil {
			return err
		}
		if err := insertImages(ctx, tx, "product_id", p.ID, p.Images); err != nil {
			return err
		}
		return reloadProduct(ctx, tx, p)
	})
	return database.Classify("product.create", "product", err)
}

func (r *productRepo) Update(ctx context.Context, p *Product) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := checkProductRefs(ctx, tx, p); err != nil {
			return err
		}
		err := tx.QueryRowxContext(ctx, `
			UPDATE products
			SET name=$1, price=$2, category_id=$3, color_id=$4, size_id=$5,
			    is_featured=$6, is_archived=$7, updated_at=NOW()
			WHERE id=$8 AND store_id=$9
			RETURNING created_at, updated_at`,
			p.Name, p.Price, p.CategoryID, p.ColorID, p.SizeID,
			p.IsFeatured, p.IsArchived, p.ID, p.StoreID).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE product_id=$1`, p.ID); err != nil {
			return err
		}
		if err := insertImages(ctx, tx, "product_id", p.ID, p.Images); err != nil {
			return err
		}
		return reloadProduct(ctx, tx, p)
	})
	return database.Classify("product.update", "product", err)
}

func (r *productRepo) Delete(ctx context.Context, storeID, id uuid.UUID) (*Product, error) {
	var p *Product
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		if p, err = getProduct(ctx, tx, storeID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE product_id=$1`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM products WHERE id=$1 AND store_id=$2`, id, storeID)
		return err
	})
	if err != nil {
		return nil, database.Classify("product.delete", "product", err)
	}
	return p, nil
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, storeID, id uuid.UUID) (*Product, error) {
	query, args, err := database.Builder.
		Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id.String(), "store_id": storeID.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}
	p := &Product{}
	if err := sqlx.GetContext(ctx, q, p, query, args...); err != nil {
		return nil, err
	}
	if err := loadProductRelations(ctx, q, []*Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// reloadProduct replaces p with the stored row and its relations, so writes
// answer with the same shape as reads.
func reloadProduct(ctx context.Context, q sqlx.QueryerContext, p *Product) error {
	stored, err := getProduct(ctx, q, p.StoreID, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// checkProductRefs rejects category, color or size ids that do not belong
// to the product's store. The database foreign keys alone would accept ids
// from another store.
func checkProductRefs(ctx context.Context, q sqlx.QueryerContext, p *Product) error {
	var n int
	err := q.QueryRowxContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM categories WHERE id=$1 AND store_id=$4) +
		  (SELECT COUNT(*) FROM colors WHERE id=$2 AND store_id=$4) +
		  (SELECT COUNT(*) FROM sizes WHERE id=$3 AND store_id=$4)`,
		p.CategoryID, p.ColorID, p.SizeID, p.StoreID).Scan(&n)
	if err != nil {
		return err
	}
	if n != 3 {
		return apperr.Constraint(database.CodeForeignKeyViolation, "product references an entity outside its store", nil)
	}
	return nil
}

// insertImages writes images in one statement. Rows tie on created_at, so
// position keeps the given order.
func insertImages(ctx context.Context, tx *sqlx.Tx, parentColumn string, parentID uuid.UUID, images []Image) error {
	if len(images) == 0 {
		return nil
	}
	b := database.Builder.Insert("images").Columns("id", parentColumn, "position", "url", "external_reference")
	for i, img := range images {
		b = b.Values(img.ID, parentID, i, img.URL, img.ExternalReference)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// loadProductRelations fills images, category, color and size with one
// query per relation.
func loadProductRelations(ctx context.Context, q sqlx.QueryerContext, products []*Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(products))
	var catIDs, colorIDs, sizeIDs []uuid.UUID
	for _, p := range products {
		ids = append(ids, p.ID)
		catIDs = append(catIDs, p.CategoryID)
		colorIDs = append(colorIDs, p.ColorID)
		sizeIDs = append(sizeIDs, p.SizeID)
	}

	images, err := imagesFor(ctx, q, "product_id", ids)
	if err != nil {
		return err
	}
	categories := []*Category{}
	if err := selectByIDs(ctx, q, &categories, "categories", categoryColumns, catIDs); err != nil {
		return err
	}
	colors := []*Attribute{}
	if err := selectByIDs(ctx, q, &colors, "colors", attributeColumns, colorIDs); err != nil {
		return err
	}
	sizes := []*Attribute{}
	if err := selectByIDs(ctx, q, &sizes, "sizes", attributeColumns, sizeIDs); err != nil {
		return err
	}

	catByID := make(map[uuid.UUID]*Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}
	colorByID := make(map[uuid.UUID]*Attribute, len(colors))
	for _, c := range colors {
		colorByID[c.ID] = c
	}
	sizeByID := make(map[uuid.UUID]*Attribute, len(sizes))
	for _, s := range sizes {
		sizeByID[s.ID] = s
	}
	for _, p := range products {
		p.Images = images[p.ID]
		if p.Images == nil {
			p.Images = []Image{}
		}
		p.Category = catByID[p.CategoryID]
		p.Color = colorByID[p.ColorID]
		p.Size = sizeByID[p.SizeID]
	}
	return nil
}

type parentImage struct {
	ParentID uuid.UUID `db:"parent_id"`
	Image
}

func imagesFor(ctx context.Context, q sqlx.QueryerContext, parentColumn string, ids []uuid.UUID) (map[uuid.UUID][]Image, error) {
	query, args, err := database.Builder.
		Select(parentColumn+" AS parent_id", "id", "url", "external_reference", "created_at").
		From("images").
		Where(sq.Eq{parentColumn: ids}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows := []parentImage{}
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]Image, len(ids))
	for _, row := range rows {
		out[row.ParentID] = append(out[row.ParentID], row.Image)
	}
	return out, nil
}

func selectByIDs(ctx context.Context, q sqlx.QueryerContext, dest interface{}, table string, columns []string, ids []uuid.UUID) error {
	query, args, err := database.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}
