package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog/internal/infra/dbx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store is the data access abstraction for categories.
type Store interface {
	Create(ctx context.Context, c *Category) (*Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	// FindConflict returns a category other than excludeID sharing name or
	// slug, or nil.
	FindConflict(ctx context.Context, name, slug string, excludeID *uuid.UUID) (*Category, error)
	List(ctx context.Context, opts ListOptions) ([]*Category, int, error)
	ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]*Category, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
	CountProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	ListProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]ProductSummary, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const categoryColumns = `id, name, slug, description, is_active, parent_id, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, c *Category) (*Category, error) {
	query := `
		INSERT INTO categories (name, slug, description, is_active, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + categoryColumns

	created, err := scanCategory(r.db.QueryRow(ctx, query, c.Name, c.Slug, c.Description, c.IsActive, c.ParentID))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// GetByID returns ErrNotFound when no row matches.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return c, nil
}

func (r *Repository) FindConflict(ctx context.Context, name, slug string, excludeID *uuid.UUID) (*Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE (($1 <> '' AND name = $1) OR ($2 <> '' AND slug = $2))
		  AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY (name = $1) DESC
		LIMIT 1`

	c, err := scanCategory(r.db.QueryRow(ctx, query, name, slug, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find category conflict: %w", err)
	}
	return c, nil
}

// List returns one page of categories and the total matching the filters.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*Category, int, error) {
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
	if opts.OnlyRoot {
		where = append(where, "parent_id IS NULL")
	}
	if opts.OnlyChildren {
		where = append(where, "parent_id IS NOT NULL")
	}
	if opts.ExcludeID != nil {
		where = append(where, "id <> "+arg(*opts.ExcludeID))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	query := `SELECT ` + categoryColumns + ` FROM categories ` + clause +
		` ORDER BY LOWER(name) ASC, id ASC LIMIT ` + arg(opts.Limit) + ` OFFSET ` + arg(opts.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	list := make([]*Category, 0, opts.Limit)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return list, total, nil
}

func (r *Repository) ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]*Category, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = ANY($1) ORDER BY LOWER(name) ASC, id ASC`

	rows, err := r.db.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	defer rows.Close()

	var list []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child category: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *Repository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE parent_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) CountProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT category_id, COUNT(*)
		FROM products
		WHERE category_id = ANY($1)
		GROUP BY category_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("count category products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan product count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *Repository) ListProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]ProductSummary, error) {
	out := make(map[uuid.UUID][]ProductSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT category_id, id, name, slug, sku, is_active
		FROM products
		WHERE category_id = ANY($1)
		ORDER BY LOWER(name) ASC, id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list category products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var categoryID uuid.UUID
		var p ProductSummary
		if err := rows.Scan(&categoryID, &p.ID, &p.Name, &p.Slug, &p.SKU, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan category product: %w", err)
		}
		out[categoryID] = append(out[categoryID], p)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*Category, error) {
	query := `
		UPDATE categories
		SET name = $1,
		    slug = $2,
		    description = $3,
		    is_active = $4,
		    parent_id = $5,
		    updated_at = NOW()
		WHERE id = $6
		RETURNING ` + categoryColumns

	updated, err := scanCategory(r.db.QueryRow(ctx, query, p.Name, p.Slug, p.Description, p.IsActive, p.ParentID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
