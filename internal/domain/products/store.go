package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog/internal/infra/dbx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Store is the data access abstraction for products and their owned rows.
type Store interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	// FindConflict returns a product other than excludeID sharing name, sku
	// or slug, or nil. Empty arguments are not matched.
	FindConflict(ctx context.Context, name, sku, slug string, excludeID *uuid.UUID) (*Product, error)
	// FindVariantSKUConflict returns the first of skus already used by a
	// variant of another product, or "".
	FindVariantSKUConflict(ctx context.Context, skus []string, excludeProductID *uuid.UUID) (string, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]*Product, int, error)
	Update(ctx context.Context, id uuid.UUID, p *Product) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ReplaceFeatures(ctx context.Context, productID uuid.UUID, features []Feature) error
	// ReplaceDimensions deletes the product's dimensions row and, when d is
	// non-nil, writes d in its place.
	ReplaceDimensions(ctx context.Context, productID uuid.UUID, d *Dimensions) error
	DeleteVariants(ctx context.Context, productID uuid.UUID) error
	CreateVariant(ctx context.Context, productID uuid.UUID, position int, v Variant) (uuid.UUID, error)

	Features(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Feature, error)
	Dimensions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Dimensions, error)
	Variants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Variant, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const productColumns = `id, name, sku, slug, brand, origin, description, price, is_active, category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Slug, &p.Brand, &p.Origin, &p.Description,
		&p.Price, &p.IsActive, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products (name, sku, slug, brand, origin, description, price, is_active, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRow(ctx, query,
		p.Name, p.SKU, p.Slug, p.Brand, p.Origin, p.Description, p.Price, p.IsActive, p.CategoryID))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return p, nil
}

func (r *Repository) FindConflict(ctx context.Context, name, sku, slug string, excludeID *uuid.UUID) (*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE (($1 <> '' AND name = $1) OR ($2 <> '' AND sku = $2) OR ($3 <> '' AND slug = $3))
		  AND ($4::uuid IS NULL OR id <> $4)
		LIMIT 1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, name, sku, slug, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product conflict: %w", err)
	}
	return p, nil
}

func (r *Repository) FindVariantSKUConflict(ctx context.Context, skus []string, excludeProductID *uuid.UUID) (string, error) {
	if len(skus) == 0 {
		return "", nil
	}
	var sku string
	err := r.db.QueryRow(ctx, `
		SELECT sku
		FROM product_variants
		WHERE sku = ANY($1)
		  AND ($2::uuid IS NULL OR product_id <> $2)
		ORDER BY sku
		LIMIT 1`, skus, excludeProductID).Scan(&sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find variant sku conflict: %w", err)
	}
	return sku, nil
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*Product, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(opts.Query); q != "" {
		where = append(where, "name ILIKE '%' || "+arg(q)+" || '%'")
	}
	if opts.CategoryID != nil {
		where = append(where, "category_id = "+arg(*opts.CategoryID))
	}
	if opts.IsActive != nil {
		where = append(where, "is_active = "+arg(*opts.IsActive))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products ` + clause +
		` ORDER BY LOWER(name) ASC, id ASC LIMIT ` + arg(opts.Limit) + ` OFFSET ` + arg(opts.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	list := make([]*Product, 0, opts.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return list, total, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p *Product) (*Product, error) {
	query := `
		UPDATE products
		SET name = $1,
		    sku = $2,
		    slug = $3,
		    brand = $4,
		    origin = $5,
		    description = $6,
		    price = $7,
		    is_active = $8,
		    category_id = $9,
		    updated_at = NOW()
		WHERE id = $10
		RETURNING ` + productColumns

	updated, err := scanProduct(r.db.QueryRow(ctx, query,
		p.Name, p.SKU, p.Slug, p.Brand, p.Origin, p.Description, p.Price, p.IsActive, p.CategoryID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ReplaceFeatures(ctx context.Context, productID uuid.UUID, features []Feature) error {
	b := &pgx.Batch{}
	b.Queue(`DELETE FROM product_features WHERE product_id = $1`, productID)
	for _, f := range features {
		b.Queue(`INSERT INTO product_features (product_id, name, value) VALUES ($1, $2, $3)`, productID, f.Name, f.Value)
	}
	if err := dbx.ExecBatch(ctx, r.db, b); err != nil {
		return fmt.Errorf("replace product features: %w", err)
	}
	return nil
}

func (r *Repository) ReplaceDimensions(ctx context.Context, productID uuid.UUID, d *Dimensions) error {
	b := &pgx.Batch{}
	b.Queue(`DELETE FROM product_dimensions WHERE product_id = $1`, productID)
	if d != nil {
		b.Queue(`
			INSERT INTO product_dimensions (product_id, length, width, height, depth, diameter, unit)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			productID, d.Length, d.Width, d.Height, nullable(d.Depth), nullable(d.Diameter), string(d.Unit))
	}
	if err := dbx.ExecBatch(ctx, r.db, b); err != nil {
		return fmt.Errorf("replace product dimensions: %w", err)
	}
	return nil
}

func (r *Repository) DeleteVariants(ctx context.Context, productID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete product variants: %w", err)
	}
	return nil
}

// CreateVariant inserts the variant row and, when present, its dimensions.
// v.Color.ID must already exist. Variants read back ordered by position.
func (r *Repository) CreateVariant(ctx context.Context, productID uuid.UUID, position int, v Variant) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO product_variants (product_id, position, sku, available_quantity, price, color_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`, productID, position, v.SKU, v.AvailableQuantity, v.Price, v.Color.ID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create variant %s: %w", v.SKU, err)
	}

	if d := v.Dimensions; d != nil {
		_, err := r.db.Exec(ctx, `
			INSERT INTO product_variant_dimensions (variant_id, length, width, height, depth, diameter, unit)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, d.Length, d.Width, d.Height, nullable(d.Depth), nullable(d.Diameter), string(d.Unit))
		if err != nil {
			return uuid.Nil, fmt.Errorf("create variant %s dimensions: %w", v.SKU, err)
		}
	}
	return id, nil
}

func (r *Repository) Features(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Feature, error) {
	out := make(map[uuid.UUID][]Feature, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT product_id, name, value
		FROM product_features
		WHERE product_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list product features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var f Feature
		if err := rows.Scan(&id, &f.Name, &f.Value); err != nil {
			return nil, fmt.Errorf("scan product feature: %w", err)
		}
		out[id] = append(out[id], f)
	}
	return out, rows.Err()
}

func (r *Repository) Dimensions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Dimensions, error) {
	out := make(map[uuid.UUID]*Dimensions, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT product_id, length, width, height, depth, diameter, unit
		FROM product_dimensions
		WHERE product_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list product dimensions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var (
			d               Dimensions
			depth, diameter decimal.NullDecimal
			unit            string
		)
		if err := rows.Scan(&id, &d.Length, &d.Width, &d.Height, &depth, &diameter, &unit); err != nil {
			return nil, fmt.Errorf("scan product dimensions: %w", err)
		}
		d.Depth, d.Diameter, d.Unit = fromNull(depth), fromNull(diameter), Unit(unit)
		out[id] = &d
	}
	return out, rows.Err()
}

func (r *Repository) Variants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Variant, error) {
	out := make(map[uuid.UUID][]Variant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT v.product_id, v.id, v.sku, v.available_quantity, v.price,
		       c.id, c.color_code, c.color_name, c.created_at, c.updated_at,
		       d.length, d.width, d.height, d.depth, d.diameter, d.unit
		FROM product_variants v
		JOIN colors c ON c.id = v.color_id
		LEFT JOIN product_variant_dimensions d ON d.variant_id = v.id
		WHERE v.product_id = ANY($1)
		ORDER BY v.product_id, v.position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID                              uuid.UUID
			v                                      Variant
			length, width, height, depth, diameter decimal.NullDecimal
			unit                                   *string
		)
		err := rows.Scan(&productID, &v.ID, &v.SKU, &v.AvailableQuantity, &v.Price,
			&v.Color.ID, &v.Color.Code, &v.Color.Name, &v.Color.CreatedAt, &v.Color.UpdatedAt,
			&length, &width, &height, &depth, &diameter, &unit)
		if err != nil {
			return nil, fmt.Errorf("scan product variant: %w", err)
		}
		if unit != nil {
			v.Dimensions = &Dimensions{
				Length:   length.Decimal,
				Width:    width.Decimal,
				Height:   height.Decimal,
				Depth:    fromNull(depth),
				Diameter: fromNull(diameter),
				Unit:     Unit(*unit),
			}
		}
		out[productID] = append(out[productID], v)
	}
	return out, rows.Err()
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
