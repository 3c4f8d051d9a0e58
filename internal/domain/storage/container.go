package storage

import (
	"context"

	"catalog/internal/domain/categories"
	"catalog/internal/domain/colors"
	"catalog/internal/domain/products"
	"catalog/internal/infra/dbx"
	"catalog/internal/media"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool       *pgxpool.Pool
	Categories categories.Store
	Products   products.Store
	Colors     colors.Store
	Images     media.ImageStore
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:       db,
		Categories: categories.NewRepository(db),
		Products:   products.NewRepository(db),
		Colors:     colors.NewRepository(db),
		Images:     media.NewRepository(db),
	}
}

// WithinTx runs a product unit of work atomically. The stores handed to fn
// are bound to the transaction and must not escape it.
func (c *Container) WithinTx(ctx context.Context, fn func(tx products.TxStores) error) error {
	return dbx.WithTx(ctx, c.pool, func(tx pgx.Tx) error {
		return fn(products.TxStores{
			Products: products.NewRepository(tx),
			Colors:   colors.NewRepository(tx),
		})
	})
}
