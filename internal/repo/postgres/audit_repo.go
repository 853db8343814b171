package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Insert(ctx context.Context, entry model.AuditEntry) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Action) == "" || entry.ModeratorID <= 0 {
		return fmt.Errorf("invalid audit entry")
	}

	props, err := json.Marshal(entry.Props)
	if err != nil {
		return fmt.Errorf("marshal audit props: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO audit_log (
	id,
	action,
	moderator_id,
	review_id,
	content_type,
	reviewable_id,
	props,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, entry.ID, entry.Action, entry.ModeratorID, entry.ReviewID, string(entry.ContentType), entry.ReviewableID, props, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}
