package moderation

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/egonyu/tesotunes-moderation/internal/domain/enums"
)

// Reviewable is the narrow capability the review lifecycle needs from a
// content-owning table: flip visibility or soft-delete. The owning subsystem
// keeps every other mutation to itself.
type Reviewable interface {
	SetPublished(ctx context.Context, tx pgx.Tx, id int64) error
	SetHidden(ctx context.Context, tx pgx.Tx, id int64) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error
}

type Registry map[enums.ContentType]Reviewable

type CatalogStore interface {
	Publish(ctx context.Context, tx pgx.Tx, kind string, itemID int64) error
	Hide(ctx context.Context, tx pgx.Tx, kind string, itemID int64) error
	SoftDelete(ctx context.Context, tx pgx.Tx, kind string, itemID int64) error
}

type ForumStore interface {
	PublishTopic(ctx context.Context, tx pgx.Tx, topicID int64) error
	HideTopic(ctx context.Context, tx pgx.Tx, topicID int64) error
	SoftDeleteTopic(ctx context.Context, tx pgx.Tx, topicID int64) error
	PublishReply(ctx context.Context, tx pgx.Tx, replyID int64) error
	HideReply(ctx context.Context, tx pgx.Tx, replyID int64) error
	SoftDeleteReply(ctx context.Context, tx pgx.Tx, replyID int64) error
}

type CommentStore interface {
	Publish(ctx context.Context, tx pgx.Tx, commentID int64) error
	Hide(ctx context.Context, tx pgx.Tx, commentID int64) error
	SoftDelete(ctx context.Context, tx pgx.Tx, commentID int64) error
}

func NewRegistry(catalog CatalogStore, forum ForumStore, comments CommentStore) Registry {
	return Registry{
		enums.ContentTypeMusic:      catalogReviewable{store: catalog, kind: "music"},
		enums.ContentTypeAlbum:      catalogReviewable{store: catalog, kind: "album"},
		enums.ContentTypePodcast:    catalogReviewable{store: catalog, kind: "podcast"},
		enums.ContentTypeComment:    commentReviewable{store: comments},
		enums.ContentTypeForumTopic: topicReviewable{store: forum},
		enums.ContentTypeForumReply: replyReviewable{store: forum},
	}
}

type catalogReviewable struct {
	store CatalogStore
	kind  string
}

func (c catalogReviewable) SetPublished(ctx context.Context, tx pgx.Tx, id int64) error {
	return c.store.Publish(ctx, tx, c.kind, id)
}

func (c catalogReviewable) SetHidden(ctx context.Context, tx pgx.Tx, id int64) error {
	return c.store.Hide(ctx, tx, c.kind, id)
}

func (c catalogReviewable) SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error {
	return c.store.SoftDelete(ctx, tx, c.kind, id)
}

type topicReviewable struct {
	store ForumStore
}

func (t topicReviewable) SetPublished(ctx context.Context, tx pgx.Tx, id int64) error {
	return t.store.PublishTopic(ctx, tx, id)
}

func (t topicReviewable) SetHidden(ctx context.Context, tx pgx.Tx, id int64) error {
	return t.store.HideTopic(ctx, tx, id)
}

func (t topicReviewable) SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error {
	return t.store.SoftDeleteTopic(ctx, tx, id)
}

type replyReviewable struct {
	store ForumStore
}

func (r replyReviewable) SetPublished(ctx context.Context, tx pgx.Tx, id int64) error {
	return r.store.PublishReply(ctx, tx, id)
}

func (r replyReviewable) SetHidden(ctx context.Context, tx pgx.Tx, id int64) error {
	return r.store.HideReply(ctx, tx, id)
}

func (r replyReviewable) SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error {
	return r.store.SoftDeleteReply(ctx, tx, id)
}

type commentReviewable struct {
	store CommentStore
}

func (c commentReviewable) SetPublished(ctx context.Context, tx pgx.Tx, id int64) error {
	return c.store.Publish(ctx, tx, id)
}

func (c commentReviewable) SetHidden(ctx context.Context, tx pgx.Tx, id int64) error {
	return c.store.Hide(ctx, tx, id)
}

func (c commentReviewable) SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error {
	return c.store.SoftDelete(ctx, tx, id)
}
