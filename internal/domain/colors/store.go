package colors

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/infra/dbx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Store interface {
	Create(ctx context.Context, code, name string) (*Color, error)
	List(ctx context.Context) ([]*Color, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Color, error)
	// FindByCodeOrName returns any color with the given code or
	// (case-insensitively) name other than excludeID, or nil.
	FindByCodeOrName(ctx context.Context, code, name string, excludeID *uuid.UUID) (*Color, error)
	GetOrCreate(ctx context.Context, code, name string) (*Color, error)
	Update(ctx context.Context, id uuid.UUID, code, name string) (*Color, error)
	InUse(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const colorColumns = `id, color_code, color_name, created_at, updated_at`

func scanColor(row pgx.Row) (*Color, error) {
	c := &Color{}
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, code, name string) (*Color, error) {
	query := `INSERT INTO colors (color_code, color_name) VALUES ($1, $2) RETURNING ` + colorColumns
	c, err := scanColor(r.db.QueryRow(ctx, query, code, name))
	if err != nil {
		return nil, fmt.Errorf("create color: %w", err)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context) ([]*Color, error) {
	rows, err := r.db.Query(ctx, `SELECT `+colorColumns+` FROM colors ORDER BY LOWER(color_name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	defer rows.Close()

	list := []*Color{}
	for rows.Next() {
		c, err := scanColor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Color, error) {
	c, err := scanColor(r.db.QueryRow(ctx, `SELECT `+colorColumns+` FROM colors WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get color: %w", err)
	}
	return c, nil
}

func (r *Repository) FindByCodeOrName(ctx context.Context, code, name string, excludeID *uuid.UUID) (*Color, error) {
	query := `
		SELECT ` + colorColumns + `
		FROM colors
		WHERE (color_code = $1 OR LOWER(color_name) = LOWER($2))
		  AND ($3::uuid IS NULL OR id <> $3)
		LIMIT 1`
	c, err := scanColor(r.db.QueryRow(ctx, query, code, name, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find color: %w", err)
	}
	return c, nil
}

// GetOrCreate is idempotent under concurrent callers: the insert yields to
// any existing row and the lookup is by name.
func (r *Repository) GetOrCreate(ctx context.Context, code, name string) (*Color, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO colors (color_code, color_name)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, code, name)
	if err != nil {
		return nil, fmt.Errorf("insert color: %w", err)
	}

	c, err := scanColor(r.db.QueryRow(ctx,
		`SELECT `+colorColumns+` FROM colors WHERE LOWER(color_name) = LOWER($1)`, name))
	if err != nil {
		return nil, fmt.Errorf("resolve color %q: %w", name, err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, code, name string) (*Color, error) {
	query := `
		UPDATE colors
		SET color_code = $1, color_name = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + colorColumns
	c, err := scanColor(r.db.QueryRow(ctx, query, code, name, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update color: %w", err)
	}
	return c, nil
}

func (r *Repository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM product_variants WHERE color_id = $1)`, id).Scan(&used)
	return used, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM colors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete color: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
