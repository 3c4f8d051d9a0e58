package media

import (
	"context"
	"fmt"

	"catalog/internal/infra/dbx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type table struct {
	name        string
	ownerColumn string
}

func tableFor(entity EntityType) table {
	if entity == Category {
		return table{name: "category_images", ownerColumn: "category_id"}
	}
	return table{name: "product_images", ownerColumn: "product_id"}
}

// Repository implements ImageStore on Postgres.
type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) InsertImages(ctx context.Context, entity EntityType, id uuid.UUID, names []string) error {
	if len(names) == 0 {
		return nil
	}
	t := tableFor(entity)
	b := &pgx.Batch{}
	queueInserts(b, t, id, names)
	if err := dbx.ExecBatch(ctx, r.db, b); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

// ReplaceImages deletes every reference row of the entity and inserts names.
// Both run in one batch, which the server executes atomically.
func (r *Repository) ReplaceImages(ctx context.Context, entity EntityType, id uuid.UUID, names []string) error {
	t := tableFor(entity)
	b := &pgx.Batch{}
	b.Queue(fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.name, t.ownerColumn), id)
	queueInserts(b, t, id, names)
	if err := dbx.ExecBatch(ctx, r.db, b); err != nil {
		return fmt.Errorf("replace %s: %w", t.name, err)
	}
	return nil
}

func (r *Repository) ListImages(ctx context.Context, entity EntityType, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	t := tableFor(entity)
	query := fmt.Sprintf(`
		SELECT %[2]s, image
		FROM %[1]s
		WHERE %[2]s = ANY($1)
		ORDER BY id ASC`, t.name, t.ownerColumn)

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner uuid.UUID
		var image string
		if err := rows.Scan(&owner, &image); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out[owner] = append(out[owner], image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func queueInserts(b *pgx.Batch, t table, id uuid.UUID, names []string) {
	query := fmt.Sprintf(`INSERT INTO %s (%s, image) VALUES ($1, $2)`, t.name, t.ownerColumn)
	for _, name := range names {
		b.Queue(query, id, name)
	}
}
