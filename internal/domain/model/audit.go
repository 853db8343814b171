package model

import (
	"time"

	"github.com/egonyu/tesotunes-moderation/internal/domain/enums"
)

type AuditEntry struct {
	ID           string            `json:"id"`
	Action       string            `json:"action"`
	ModeratorID  int64             `json:"moderator_id"`
	ReviewID     *int64            `json:"review_id,omitempty"`
	ContentType  enums.ContentType `json:"content_type"`
	ReviewableID int64             `json:"reviewable_id"`
	Props        map[string]any    `json:"props,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
