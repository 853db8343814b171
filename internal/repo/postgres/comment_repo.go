package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Publish(ctx context.Context, tx pgx.Tx, commentID int64) error {
	return r.exec(ctx, tx, commentID, `
UPDATE comments
SET hidden = FALSE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`)
}

func (r *CommentRepo) Hide(ctx context.Context, tx pgx.Tx, commentID int64) error {
	return r.exec(ctx, tx, commentID, `
UPDATE comments
SET hidden = TRUE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`)
}

func (r *CommentRepo) SoftDelete(ctx context.Context, tx pgx.Tx, commentID int64) error {
	return r.exec(ctx, tx, commentID, `
UPDATE comments
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`)
}

func (r *CommentRepo) exec(ctx context.Context, tx pgx.Tx, commentID int64, query string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if commentID <= 0 {
		return fmt.Errorf("invalid comment id")
	}

	tag, err := tx.Exec(ctx, query, commentID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}

	return nil
}
