package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTopicNotFound = errors.New("forum topic not found")
	ErrReplyNotFound = errors.New("forum reply not found")
)

// ForumRepo issues the narrow visibility commands the moderation subsystem is
// allowed to run against forum content. It never touches other topic fields.
type ForumRepo struct {
	pool *pgxpool.Pool
}

func NewForumRepo(pool *pgxpool.Pool) *ForumRepo {
	return &ForumRepo{pool: pool}
}

func (r *ForumRepo) PublishTopic(ctx context.Context, tx pgx.Tx, topicID int64) error {
	return execVisibility(ctx, tx, topicID, `
UPDATE forum_topics
SET published = TRUE, hidden = FALSE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, ErrTopicNotFound)
}

func (r *ForumRepo) HideTopic(ctx context.Context, tx pgx.Tx, topicID int64) error {
	return execVisibility(ctx, tx, topicID, `
UPDATE forum_topics
SET published = FALSE, hidden = TRUE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, ErrTopicNotFound)
}

func (r *ForumRepo) SoftDeleteTopic(ctx context.Context, tx pgx.Tx, topicID int64) error {
	return execVisibility(ctx, tx, topicID, `
UPDATE forum_topics
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, ErrTopicNotFound)
}

func (r *ForumRepo) PublishReply(ctx context.Context, tx pgx.Tx, replyID int64) error {
	return execVisibility(ctx, tx, replyID, `
UPDATE forum_replies
SET hidden = FALSE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, ErrReplyNotFound)
}

func (r *ForumRepo) HideReply(ctx context.Context, tx pgx.Tx, replyID int64) error {
	return execVisibility(ctx, tx, replyID, `
UPDATE forum_replies
SET hidden = TRUE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, ErrReplyNotFound)
}

func (r *ForumRepo) SoftDeleteReply(ctx context.Context, tx pgx.Tx, replyID int64) error {
	return execVisibility(ctx, tx, replyID, `
UPDATE forum_replies
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, ErrReplyNotFound)
}

func execVisibility(ctx context.Context, tx pgx.Tx, id int64, query string, missing error) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if id <= 0 {
		return fmt.Errorf("invalid entity id")
	}

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("update entity visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return missing
	}

	return nil
}
