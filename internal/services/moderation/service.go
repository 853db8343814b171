package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/egonyu/tesotunes-moderation/internal/domain/enums"
	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
	"github.com/egonyu/tesotunes-moderation/internal/pkg/validate"
	"github.com/egonyu/tesotunes-moderation/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("review not found")
	ErrInvalidState = errors.New("invalid state for requested transition")
	ErrRateLimited  = errors.New("rate limited")
)

const (
	maxRejectReasonLen = 500

	// System reason recorded when a moderator closes a case without judging
	// the content itself.
	archiveReason = "archived without decision"
)

// RateLimitError carries the remaining window so handlers can emit a
// Retry-After hint. errors.Is(err, ErrRateLimited) matches it.
type RateLimitError struct {
	RetryAfterSec int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfterSec)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

type ReviewStore interface {
	Create(ctx context.Context, in postgres.CreateReviewInput) (model.ReviewRecord, error)
	GetByID(ctx context.Context, reviewID int64) (model.ReviewRecord, error)
	GetByReference(ctx context.Context, contentType enums.ContentType, reviewableID int64) (model.ReviewRecord, error)
	ListPending(ctx context.Context, contentType enums.ContentType, limit int) ([]model.ReviewRecord, error)
	ListQueue(ctx context.Context, f postgres.QueueFilter) ([]model.ReviewRecord, int, error)
	CountPendingByType(ctx context.Context) ([]postgres.ContentTypeCount, error)
	Assign(ctx context.Context, reviewID, moderatorID int64) (model.ReviewRecord, bool, error)
	MarkApproved(ctx context.Context, tx pgx.Tx, reviewID, moderatorID int64, notes string) (model.ReviewRecord, error)
	MarkRejected(ctx context.Context, tx pgx.Tx, reviewID, moderatorID int64, reason string, archived bool) (model.ReviewRecord, error)
	Escalate(ctx context.Context, reviewID int64) (model.ReviewRecord, error)
	RecentForModerator(ctx context.Context, moderatorID int64, limit int) ([]model.ReviewRecord, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Auditor interface {
	Record(ctx context.Context, action string, moderatorID int64, reviewID *int64, contentType enums.ContentType, reviewableID int64, props map[string]any)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type BulkLimiter interface {
	AllowBulk(ctx context.Context, moderatorID int64) (int64, bool, error)
}

type Config struct {
	QueuePageSize    int
	PendingTopicsMax int
	PreviewURLTTL    time.Duration
	DashboardRecentN int
}

type Service struct {
	reviews  ReviewStore
	registry Registry
	tx       TxRunner
	auditor  Auditor
	signer   URLSigner
	limiter  BulkLimiter
	cfg      Config
	log      *zap.Logger
}

func NewService(reviews ReviewStore, registry Registry, tx TxRunner, auditor Auditor, signer URLSigner, limiter BulkLimiter, cfg Config, log *zap.Logger) *Service {
	if cfg.QueuePageSize <= 0 {
		cfg.QueuePageSize = 20
	}
	if cfg.PendingTopicsMax <= 0 {
		cfg.PendingTopicsMax = 50
	}
	if cfg.PreviewURLTTL <= 0 {
		cfg.PreviewURLTTL = 5 * time.Minute
	}
	if cfg.DashboardRecentN <= 0 {
		cfg.DashboardRecentN = 10
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		reviews:  reviews,
		registry: registry,
		tx:       tx,
		auditor:  auditor,
		signer:   signer,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

type EnqueueInput struct {
	ContentType     string
	ReviewableID    int64
	Priority        string
	AutomatedReason string
	PreviewKey      string
}

// Enqueue opens a pending review case for an entity. Producers call it when
// content is created or an automated filter flags something.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (model.ReviewRecord, error) {
	contentType, ok := enums.ParseContentType(in.ContentType)
	if !ok {
		return model.ReviewRecord{}, fmt.Errorf("%w: unknown content type %q", ErrValidation, in.ContentType)
	}
	if in.ReviewableID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("%w: reviewable_id is required", ErrValidation)
	}

	priority := enums.PriorityMedium
	if strings.TrimSpace(in.Priority) != "" {
		parsed, ok := enums.ParsePriority(in.Priority)
		if !ok {
			return model.ReviewRecord{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
		}
		priority = parsed
	}

	record, err := s.reviews.Create(ctx, postgres.CreateReviewInput{
		ContentType:     contentType,
		ReviewableID:    in.ReviewableID,
		Priority:        priority,
		AutomatedReason: in.AutomatedReason,
		PreviewKey:      in.PreviewKey,
	})
	if err != nil {
		return model.ReviewRecord{}, fmt.Errorf("enqueue review: %w", err)
	}

	return record, nil
}

// Assign claims a case for a moderator. Terminal or already-claimed records
// are returned as-is with assigned=false instead of failing, so double clicks
// in the queue UI stay harmless.
func (s *Service) Assign(ctx context.Context, reviewID, moderatorID int64) (model.ReviewRecord, bool, error) {
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, false, fmt.Errorf("%w: review and moderator ids are required", ErrValidation)
	}

	record, assigned, err := s.reviews.Assign(ctx, reviewID, moderatorID)
	if err != nil {
		return model.ReviewRecord{}, false, mapStoreErr(err)
	}

	if assigned {
		s.audit(ctx, "review_assigned", moderatorID, record, nil)
	}

	return record, assigned, nil
}

func (s *Service) Approve(ctx context.Context, reviewID, moderatorID int64, notes string) (model.ReviewRecord, error) {
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("%w: review and moderator ids are required", ErrValidation)
	}

	var record model.ReviewRecord
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rec, err := s.reviews.MarkApproved(ctx, tx, reviewID, moderatorID, notes)
		if err != nil {
			return err
		}
		if err := s.applyVisibility(ctx, tx, rec, visibilityPublish); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return model.ReviewRecord{}, mapStoreErr(err)
	}

	s.audit(ctx, "content_approved", moderatorID, record, map[string]any{"notes": strings.TrimSpace(notes)})
	return record, nil
}

func (s *Service) Reject(ctx context.Context, reviewID, moderatorID int64, reason string) (model.ReviewRecord, error) {
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("%w: review and moderator ids are required", ErrValidation)
	}
	if err := validateRejectReason(reason); err != nil {
		return model.ReviewRecord{}, err
	}

	record, err := s.reject(ctx, reviewID, moderatorID, strings.TrimSpace(reason), false)
	if err != nil {
		return model.ReviewRecord{}, err
	}

	s.audit(ctx, "content_rejected", moderatorID, record, map[string]any{"reason": strings.TrimSpace(reason)})
	return record, nil
}

// Archive closes a case without judging the content. It is accounted as a
// rejection with a system reason; the archived flag keeps it distinguishable
// in reporting.
func (s *Service) Archive(ctx context.Context, reviewID, moderatorID int64) (model.ReviewRecord, error) {
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("%w: review and moderator ids are required", ErrValidation)
	}

	record, err := s.reject(ctx, reviewID, moderatorID, archiveReason, true)
	if err != nil {
		return model.ReviewRecord{}, err
	}

	s.audit(ctx, "content_archived", moderatorID, record, nil)
	return record, nil
}

func (s *Service) Escalate(ctx context.Context, reviewID, moderatorID int64) (model.ReviewRecord, error) {
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("%w: review and moderator ids are required", ErrValidation)
	}

	record, err := s.reviews.Escalate(ctx, reviewID)
	if err != nil {
		return model.ReviewRecord{}, mapStoreErr(err)
	}

	s.audit(ctx, "content_escalated", moderatorID, record, nil)
	return record, nil
}

func (s *Service) ApproveTopic(ctx context.Context, topicID, moderatorID int64, notes string) (model.ReviewRecord, error) {
	record, err := s.resolveReference(ctx, enums.ContentTypeForumTopic, topicID)
	if err != nil {
		return model.ReviewRecord{}, err
	}
	return s.Approve(ctx, record.ID, moderatorID, notes)
}

func (s *Service) RejectTopic(ctx context.Context, topicID, moderatorID int64, reason string) (model.ReviewRecord, error) {
	record, err := s.resolveReference(ctx, enums.ContentTypeForumTopic, topicID)
	if err != nil {
		return model.ReviewRecord{}, err
	}
	return s.Reject(ctx, record.ID, moderatorID, reason)
}

func (s *Service) ArchiveTopic(ctx context.Context, topicID, moderatorID int64) (model.ReviewRecord, error) {
	record, err := s.resolveReference(ctx, enums.ContentTypeForumTopic, topicID)
	if err != nil {
		return model.ReviewRecord{}, err
	}
	return s.Archive(ctx, record.ID, moderatorID)
}

// DeleteTopic soft-deletes the topic itself. Any review record for it keeps
// its status; deletion is an entity operation, not a review decision.
func (s *Service) DeleteTopic(ctx context.Context, topicID, moderatorID int64) error {
	return s.deleteEntity(ctx, enums.ContentTypeForumTopic, topicID, moderatorID)
}

func (s *Service) DeleteReply(ctx context.Context, replyID, moderatorID int64) error {
	return s.deleteEntity(ctx, enums.ContentTypeForumReply, replyID, moderatorID)
}

func (s *Service) ApproveContent(ctx context.Context, contentType string, reviewableID, moderatorID int64, notes string) (model.ReviewRecord, error) {
	parsed, ok := enums.ParseContentType(contentType)
	if !ok {
		return model.ReviewRecord{}, fmt.Errorf("%w: unknown content type %q", ErrValidation, contentType)
	}

	record, err := s.resolveReference(ctx, parsed, reviewableID)
	if err != nil {
		return model.ReviewRecord{}, err
	}
	return s.Approve(ctx, record.ID, moderatorID, notes)
}

func (s *Service) RejectContent(ctx context.Context, contentType string, reviewableID, moderatorID int64, reason string) (model.ReviewRecord, error) {
	parsed, ok := enums.ParseContentType(contentType)
	if !ok {
		return model.ReviewRecord{}, fmt.Errorf("%w: unknown content type %q", ErrValidation, contentType)
	}
	if err := validateRejectReason(reason); err != nil {
		return model.ReviewRecord{}, err
	}

	record, err := s.resolveReference(ctx, parsed, reviewableID)
	if err != nil {
		return model.ReviewRecord{}, err
	}
	return s.Reject(ctx, record.ID, moderatorID, reason)
}

// BulkApproveTopics approves each topic independently and reports how many
// succeeded. One bad id never aborts the batch.
func (s *Service) BulkApproveTopics(ctx context.Context, topicIDs []int64, moderatorID int64) (int, error) {
	if err := s.checkBulk(ctx, topicIDs, moderatorID); err != nil {
		return 0, err
	}

	succeeded := 0
	for _, topicID := range topicIDs {
		if _, err := s.ApproveTopic(ctx, topicID, moderatorID, ""); err != nil {
			s.log.Warn("bulk approve: topic skipped",
				zap.Int64("topic_id", topicID),
				zap.Error(err),
			)
			continue
		}
		succeeded++
	}

	s.auditBulk(ctx, "bulk_approve_topics", moderatorID, len(topicIDs), succeeded)
	return succeeded, nil
}

func (s *Service) BulkDeleteTopics(ctx context.Context, topicIDs []int64, moderatorID int64) (int, error) {
	if err := s.checkBulk(ctx, topicIDs, moderatorID); err != nil {
		return 0, err
	}

	succeeded := 0
	for _, topicID := range topicIDs {
		if err := s.DeleteTopic(ctx, topicID, moderatorID); err != nil {
			s.log.Warn("bulk delete: topic skipped",
				zap.Int64("topic_id", topicID),
				zap.Error(err),
			)
			continue
		}
		succeeded++
	}

	s.auditBulk(ctx, "bulk_delete_topics", moderatorID, len(topicIDs), succeeded)
	return succeeded, nil
}

type PendingItem struct {
	Record     model.ReviewRecord `json:"record"`
	PreviewURL string             `json:"preview_url,omitempty"`
}

func (s *Service) GetPendingTopics(ctx context.Context, limit int) ([]PendingItem, error) {
	if limit <= 0 || limit > s.cfg.PendingTopicsMax {
		limit = s.cfg.PendingTopicsMax
	}

	records, err := s.reviews.ListPending(ctx, enums.ContentTypeForumTopic, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending topics: %w", err)
	}

	items := make([]PendingItem, 0, len(records))
	for _, record := range records {
		item := PendingItem{Record: record}
		if record.PreviewKey != nil && s.signer != nil {
			signed, err := s.signer.PresignGet(ctx, *record.PreviewKey, s.cfg.PreviewURLTTL)
			if err != nil {
				s.log.Warn("failed to presign preview url",
					zap.Int64("review_id", record.ID),
					zap.Error(err),
				)
			} else {
				item.PreviewURL = signed
			}
		}
		items = append(items, item)
	}

	return items, nil
}

type QueueQuery struct {
	Status      string
	ContentType string
	Page        int
}

type QueuePage struct {
	Records []model.ReviewRecord `json:"records"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
	Counts  map[string]int       `json:"counts"`
}

// Queue is the main moderation queue projection: filtered page of records
// plus pending counts per content type.
func (s *Service) Queue(ctx context.Context, q QueueQuery) (QueuePage, error) {
	filter := postgres.QueueFilter{
		Page:    q.Page,
		PerPage: s.cfg.QueuePageSize,
	}

	if status := strings.TrimSpace(q.Status); status != "" {
		parsed, ok := parseQueueStatus(status)
		if !ok {
			return QueuePage{}, fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
		}
		filter.Statuses = []enums.ReviewStatus{parsed}
	}
	if raw := strings.TrimSpace(q.ContentType); raw != "" {
		parsed, ok := enums.ParseContentType(raw)
		if !ok {
			return QueuePage{}, fmt.Errorf("%w: unknown content type %q", ErrValidation, q.ContentType)
		}
		filter.ContentType = parsed
	}

	records, total, err := s.reviews.ListQueue(ctx, filter)
	if err != nil {
		return QueuePage{}, fmt.Errorf("load moderation queue: %w", err)
	}

	typeCounts, err := s.reviews.CountPendingByType(ctx)
	if err != nil {
		return QueuePage{}, fmt.Errorf("count pending by type: %w", err)
	}

	counts := make(map[string]int, len(typeCounts)+1)
	all := 0
	for _, c := range typeCounts {
		counts[string(c.ContentType)] = c.Count
		all += c.Count
	}
	counts["all"] = all

	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return QueuePage{
		Records: records,
		Total:   total,
		Page:    page,
		PerPage: filter.PerPage,
		Counts:  counts,
	}, nil
}

type ReportQuery struct {
	Bucket string
	Page   int
}

type ReportPage struct {
	Bucket  enums.ReportBucket   `json:"bucket"`
	Records []model.ReviewRecord `json:"records"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

// Reports groups cases into the coarse buckets the report screen shows.
func (s *Service) Reports(ctx context.Context, q ReportQuery) (ReportPage, error) {
	bucket := enums.ReportBucketOpen
	if raw := strings.TrimSpace(q.Bucket); raw != "" {
		parsed, ok := enums.ParseReportBucket(raw)
		if !ok {
			return ReportPage{}, fmt.Errorf("%w: unknown report bucket %q", ErrValidation, q.Bucket)
		}
		bucket = parsed
	}

	filter := postgres.QueueFilter{
		Statuses: bucket.Statuses(),
		Page:     q.Page,
		PerPage:  s.cfg.QueuePageSize,
	}

	records, total, err := s.reviews.ListQueue(ctx, filter)
	if err != nil {
		return ReportPage{}, fmt.Errorf("load report queue: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return ReportPage{
		Bucket:  bucket,
		Records: records,
		Total:   total,
		Page:    page,
		PerPage: filter.PerPage,
	}, nil
}

// RecentForModerator feeds the dashboard: latest cases touched by or still
// unclaimed for this moderator.
func (s *Service) RecentForModerator(ctx context.Context, moderatorID int64) ([]model.ReviewRecord, error) {
	if moderatorID <= 0 {
		return nil, fmt.Errorf("%w: moderator id is required", ErrValidation)
	}

	records, err := s.reviews.RecentForModerator(ctx, moderatorID, s.cfg.DashboardRecentN)
	if err != nil {
		return nil, fmt.Errorf("list recent reviews: %w", err)
	}

	return records, nil
}

type visibilityAction int

const (
	visibilityPublish visibilityAction = iota
	visibilityHide
)

func (s *Service) applyVisibility(ctx context.Context, tx pgx.Tx, record model.ReviewRecord, action visibilityAction) error {
	target, ok := s.registry[record.ContentType]
	if !ok {
		return fmt.Errorf("no reviewable registered for content type %s", record.ContentType)
	}

	switch action {
	case visibilityPublish:
		return target.SetPublished(ctx, tx, record.ReviewableID)
	case visibilityHide:
		return target.SetHidden(ctx, tx, record.ReviewableID)
	}
	return fmt.Errorf("unknown visibility action %d", action)
}

func (s *Service) reject(ctx context.Context, reviewID, moderatorID int64, reason string, archived bool) (model.ReviewRecord, error) {
	var record model.ReviewRecord
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rec, err := s.reviews.MarkRejected(ctx, tx, reviewID, moderatorID, reason, archived)
		if err != nil {
			return err
		}
		if err := s.applyVisibility(ctx, tx, rec, visibilityHide); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return model.ReviewRecord{}, mapStoreErr(err)
	}

	return record, nil
}

func (s *Service) deleteEntity(ctx context.Context, contentType enums.ContentType, entityID, moderatorID int64) error {
	if entityID <= 0 || moderatorID <= 0 {
		return fmt.Errorf("%w: entity and moderator ids are required", ErrValidation)
	}

	target, ok := s.registry[contentType]
	if !ok {
		return fmt.Errorf("no reviewable registered for content type %s", contentType)
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return target.SoftDelete(ctx, tx, entityID)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, "content_deleted", moderatorID, nil, contentType, entityID, nil)
	}
	return nil
}

func (s *Service) resolveReference(ctx context.Context, contentType enums.ContentType, reviewableID int64) (model.ReviewRecord, error) {
	if reviewableID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("%w: entity id is required", ErrValidation)
	}

	record, err := s.reviews.GetByReference(ctx, contentType, reviewableID)
	if err != nil {
		return model.ReviewRecord{}, mapStoreErr(err)
	}

	return record, nil
}

func (s *Service) checkBulk(ctx context.Context, ids []int64, moderatorID int64) error {
	if moderatorID <= 0 {
		return fmt.Errorf("%w: moderator id is required", ErrValidation)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one id is required", ErrValidation)
	}
	if s.limiter == nil {
		return nil
	}

	retryAfter, allowed, err := s.limiter.AllowBulk(ctx, moderatorID)
	if err != nil {
		return fmt.Errorf("check bulk rate limit: %w", err)
	}
	if !allowed {
		return &RateLimitError{RetryAfterSec: retryAfter}
	}

	return nil
}

func (s *Service) audit(ctx context.Context, action string, moderatorID int64, record model.ReviewRecord, props map[string]any) {
	if s.auditor == nil {
		return
	}
	reviewID := record.ID
	s.auditor.Record(ctx, action, moderatorID, &reviewID, record.ContentType, record.ReviewableID, props)
}

func (s *Service) auditBulk(ctx context.Context, action string, moderatorID int64, requested, succeeded int) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, action, moderatorID, nil, enums.ContentTypeForumTopic, 0, map[string]any{
		"requested": requested,
		"succeeded": succeeded,
	})
}

// parseQueueStatus accepts review statuses plus the legacy "flagged" alias the
// queue UI still sends for escalated cases.
func parseQueueStatus(raw string) (enums.ReviewStatus, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "flagged" {
		return enums.ReviewStatusEscalated, true
	}

	status := enums.ReviewStatus(value)
	if !status.Valid() {
		return "", false
	}
	return status, true
}

func validateRejectReason(reason string) error {
	if !validate.Required(reason) {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	if !validate.MaxLen(reason, maxRejectReasonLen) {
		return fmt.Errorf("%w: rejection reason exceeds %d characters", ErrValidation, maxRejectReasonLen)
	}
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, postgres.ErrReviewNotFound),
		errors.Is(err, postgres.ErrTopicNotFound),
		errors.Is(err, postgres.ErrReplyNotFound),
		errors.Is(err, postgres.ErrCatalogItemNotFound),
		errors.Is(err, postgres.ErrCommentNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	case errors.Is(err, postgres.ErrInvalidTransition):
		return fmt.Errorf("%w: %s", ErrInvalidState, err)
	}
	return err
}
