package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCatalogItemNotFound = errors.New("catalog item not found")

// CatalogRepo covers the streaming catalog entities under review: tracks,
// albums and podcast episodes all live in catalog_items, discriminated by kind.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) Publish(ctx context.Context, tx pgx.Tx, kind string, itemID int64) error {
	return r.exec(ctx, tx, kind, itemID, `
UPDATE catalog_items
SET published = TRUE, hidden = FALSE, updated_at = NOW()
WHERE id = $1 AND kind = $2 AND deleted_at IS NULL
`)
}

func (r *CatalogRepo) Hide(ctx context.Context, tx pgx.Tx, kind string, itemID int64) error {
	return r.exec(ctx, tx, kind, itemID, `
UPDATE catalog_items
SET published = FALSE, hidden = TRUE, updated_at = NOW()
WHERE id = $1 AND kind = $2 AND deleted_at IS NULL
`)
}

func (r *CatalogRepo) SoftDelete(ctx context.Context, tx pgx.Tx, kind string, itemID int64) error {
	return r.exec(ctx, tx, kind, itemID, `
UPDATE catalog_items
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND kind = $2 AND deleted_at IS NULL
`)
}

func (r *CatalogRepo) exec(ctx context.Context, tx pgx.Tx, kind string, itemID int64, query string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if kind == "" || itemID <= 0 {
		return fmt.Errorf("invalid catalog payload")
	}

	tag, err := tx.Exec(ctx, query, itemID, kind)
	if err != nil {
		return fmt.Errorf("update catalog item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCatalogItemNotFound
	}

	return nil
}
