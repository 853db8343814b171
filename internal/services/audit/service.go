package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/egonyu/tesotunes-moderation/internal/domain/enums"
	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
)

type Store interface {
	Insert(ctx context.Context, entry model.AuditEntry) error
}

// Service records moderation actions for later review. Failures are logged
// and swallowed so a broken audit sink never blocks a decision.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) Record(ctx context.Context, action string, moderatorID int64, reviewID *int64, contentType enums.ContentType, reviewableID int64, props map[string]any) {
	entry := model.AuditEntry{
		ID:           uuid.NewString(),
		Action:       action,
		ModeratorID:  moderatorID,
		ReviewID:     reviewID,
		ContentType:  contentType,
		ReviewableID: reviewableID,
		Props:        props,
		CreatedAt:    s.now().UTC(),
	}

	if s.store == nil {
		s.log.Warn("audit store is not configured", zap.String("action", action))
		return
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry",
			zap.String("action", action),
			zap.Int64("moderator_id", moderatorID),
			zap.Error(err),
		)
	}
}
