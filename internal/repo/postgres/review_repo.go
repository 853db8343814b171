package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/egonyu/tesotunes-moderation/internal/domain/enums"
	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
)

var (
	ErrReviewNotFound    = errors.New("review record not found")
	ErrInvalidTransition = errors.New("no permitted transition from current state")
)

const reviewColumns = `
id, content_type, reviewable_id, status, priority, automated_reason, preview_key,
assigned_to, decided_by, decision, decision_notes, rejection_reason, archived,
submitted_at, assigned_at, completed_at, updated_at`

// Queue ordering: priority first, oldest submission breaks ties.
const priorityRankSQL = `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END`

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

type CreateReviewInput struct {
	ContentType     enums.ContentType
	ReviewableID    int64
	Priority        enums.Priority
	AutomatedReason string
	PreviewKey      string
}

type QueueFilter struct {
	Statuses    []enums.ReviewStatus
	ContentType enums.ContentType
	Page        int
	PerPage     int
}

type ContentTypeCount struct {
	ContentType enums.ContentType
	Count       int
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *ReviewRepo) Create(ctx context.Context, in CreateReviewInput) (model.ReviewRecord, error) {
	if r.pool == nil {
		return model.ReviewRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if !in.ContentType.Valid() || in.ReviewableID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("invalid review payload")
	}
	if !in.Priority.Valid() {
		in.Priority = enums.PriorityMedium
	}

	record, err := scanReview(r.pool.QueryRow(ctx, `
INSERT INTO review_records (
	content_type,
	reviewable_id,
	status,
	priority,
	automated_reason,
	preview_key,
	submitted_at,
	updated_at
) VALUES ($1, $2, 'pending', $3, NULLIF($4, ''), NULLIF($5, ''), NOW(), NOW())
RETURNING`+reviewColumns,
		string(in.ContentType), in.ReviewableID, string(in.Priority),
		strings.TrimSpace(in.AutomatedReason), strings.TrimSpace(in.PreviewKey)))
	if err != nil {
		return model.ReviewRecord{}, fmt.Errorf("create review record: %w", err)
	}

	return record, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, reviewID int64) (model.ReviewRecord, error) {
	if r.pool == nil {
		return model.ReviewRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if reviewID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("invalid review id")
	}

	return getByID(ctx, r.pool, reviewID)
}

// GetByReference resolves the most recent review record for an externally
// owned entity. Producers may enqueue the same entity more than once (re-review
// after edits); moderator actions always address the latest case.
func (r *ReviewRepo) GetByReference(ctx context.Context, contentType enums.ContentType, reviewableID int64) (model.ReviewRecord, error) {
	if r.pool == nil {
		return model.ReviewRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if !contentType.Valid() || reviewableID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("invalid review reference")
	}

	record, err := scanReview(r.pool.QueryRow(ctx, `
SELECT`+reviewColumns+`
FROM review_records
WHERE content_type = $1 AND reviewable_id = $2
ORDER BY submitted_at DESC, id DESC
LIMIT 1
`, string(contentType), reviewableID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReviewRecord{}, ErrReviewNotFound
		}
		return model.ReviewRecord{}, fmt.Errorf("get review by reference: %w", err)
	}

	return record, nil
}

func (r *ReviewRepo) ListPending(ctx context.Context, contentType enums.ContentType, limit int) ([]model.ReviewRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT` + reviewColumns + `
FROM review_records
WHERE status = 'pending'`
	args := []any{}
	if contentType != "" {
		args = append(args, string(contentType))
		query += fmt.Sprintf(" AND content_type = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(`
ORDER BY %s DESC, submitted_at ASC, id ASC
LIMIT $%d`, priorityRankSQL, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *ReviewRepo) ListQueue(ctx context.Context, f QueueFilter) ([]model.ReviewRecord, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	where := "TRUE"
	args := []any{}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if f.ContentType != "" {
		args = append(args, string(f.ContentType))
		where += fmt.Sprintf(" AND content_type = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM review_records WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count queue reviews: %w", err)
	}

	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT%s
FROM review_records
WHERE %s
ORDER BY %s DESC, submitted_at ASC, id ASC
LIMIT $%d OFFSET $%d`, reviewColumns, where, priorityRankSQL, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list queue reviews: %w", err)
	}
	defer rows.Close()

	records, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *ReviewRepo) CountPendingByType(ctx context.Context) ([]ContentTypeCount, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT content_type, COUNT(*)
FROM review_records
WHERE status = 'pending'
GROUP BY content_type
ORDER BY content_type
`)
	if err != nil {
		return nil, fmt.Errorf("count pending by content type: %w", err)
	}
	defer rows.Close()

	counts := make([]ContentTypeCount, 0)
	for rows.Next() {
		var item ContentTypeCount
		var contentType string
		if err := rows.Scan(&contentType, &item.Count); err != nil {
			return nil, fmt.Errorf("scan content type count: %w", err)
		}
		item.ContentType = enums.ContentType(contentType)
		counts = append(counts, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content type counts: %w", err)
	}

	return counts, nil
}

// Assign moves a pending or escalated record into review. Records that are
// already terminal (or already in review) are left untouched; the current row
// is returned with assigned=false.
func (r *ReviewRepo) Assign(ctx context.Context, reviewID, moderatorID int64) (model.ReviewRecord, bool, error) {
	if r.pool == nil {
		return model.ReviewRecord{}, false, fmt.Errorf("postgres pool is nil")
	}
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, false, fmt.Errorf("invalid assign payload")
	}

	record, err := scanReview(r.pool.QueryRow(ctx, `
UPDATE review_records
SET
	status = 'in_review',
	assigned_to = $2,
	assigned_at = NOW(),
	updated_at = NOW()
WHERE id = $1 AND status = ANY('{pending,escalated}')
RETURNING`+reviewColumns, reviewID, moderatorID))
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.ReviewRecord{}, false, fmt.Errorf("assign review record: %w", err)
	}

	current, err := getByID(ctx, r.pool, reviewID)
	if err != nil {
		return model.ReviewRecord{}, false, err
	}

	return current, false, nil
}

// MarkApproved performs the terminal transition as a single conditional
// update; zero rows affected means the record is missing or already decided,
// never a lost race.
func (r *ReviewRepo) MarkApproved(ctx context.Context, tx pgx.Tx, reviewID, moderatorID int64, notes string) (model.ReviewRecord, error) {
	if tx == nil {
		return model.ReviewRecord{}, fmt.Errorf("transaction is required")
	}
	if reviewID <= 0 || moderatorID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("invalid approve payload")
	}

	record, err := scanReview(tx.QueryRow(ctx, `
UPDATE review_records
SET
	status = 'approved',
	decision = 'approve',
	decision_notes = NULLIF($3, ''),
	decided_by = $2,
	completed_at = NOW(),
	updated_at = NOW()
WHERE id = $1 AND status = ANY('{pending,in_review,escalated}')
RETURNING`+reviewColumns, reviewID, moderatorID, strings.TrimSpace(notes)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReviewRecord{}, r.resolveBlocked(ctx, tx, reviewID)
		}
		return model.ReviewRecord{}, fmt.Errorf("mark review approved: %w", err)
	}

	return record, nil
}

func (r *ReviewRepo) MarkRejected(ctx context.Context, tx pgx.Tx, reviewID, moderatorID int64, reason string, archived bool) (model.ReviewRecord, error) {
	if tx == nil {
		return model.ReviewRecord{}, fmt.Errorf("transaction is required")
	}
	if reviewID <= 0 || moderatorID <= 0 || strings.TrimSpace(reason) == "" {
		return model.ReviewRecord{}, fmt.Errorf("invalid reject payload")
	}

	record, err := scanReview(tx.QueryRow(ctx, `
UPDATE review_records
SET
	status = 'rejected',
	decision = 'reject',
	rejection_reason = $3,
	decided_by = $2,
	archived = $4,
	completed_at = NOW(),
	updated_at = NOW()
WHERE id = $1 AND status = ANY('{pending,in_review,escalated}')
RETURNING`+reviewColumns, reviewID, moderatorID, strings.TrimSpace(reason), archived))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReviewRecord{}, r.resolveBlocked(ctx, tx, reviewID)
		}
		return model.ReviewRecord{}, fmt.Errorf("mark review rejected: %w", err)
	}

	return record, nil
}

// Escalate returns a record to the queue with urgent priority. assigned_to is
// deliberately left untouched.
func (r *ReviewRepo) Escalate(ctx context.Context, reviewID int64) (model.ReviewRecord, error) {
	if r.pool == nil {
		return model.ReviewRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if reviewID <= 0 {
		return model.ReviewRecord{}, fmt.Errorf("invalid review id")
	}

	record, err := scanReview(r.pool.QueryRow(ctx, `
UPDATE review_records
SET
	status = 'escalated',
	priority = 'urgent',
	updated_at = NOW()
WHERE id = $1 AND status = ANY('{pending,in_review}')
RETURNING`+reviewColumns, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReviewRecord{}, r.resolveBlocked(ctx, r.pool, reviewID)
		}
		return model.ReviewRecord{}, fmt.Errorf("escalate review record: %w", err)
	}

	return record, nil
}

func (r *ReviewRepo) RecentForModerator(ctx context.Context, moderatorID int64, limit int) ([]model.ReviewRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if moderatorID <= 0 {
		return nil, fmt.Errorf("invalid moderator id")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+reviewColumns+`
FROM review_records
WHERE assigned_to = $1 OR assigned_to IS NULL
ORDER BY updated_at DESC, id DESC
LIMIT $2
`, moderatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent reviews for moderator: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *ReviewRepo) CountPending(ctx context.Context) (int, error) {
	return r.countWhere(ctx, `status = 'pending'`)
}

func (r *ReviewRepo) CountOpen(ctx context.Context) (int, error) {
	return r.countWhere(ctx, `status = ANY('{pending,escalated}')`)
}

func (r *ReviewRepo) CountApprovedSince(ctx context.Context, since time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM review_records
WHERE status = 'approved' AND completed_at >= $1
`, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count approved reviews: %w", err)
	}

	return count, nil
}

// AvgReviewMinutesSince returns nil when no record completed in the window.
func (r *ReviewRepo) AvgReviewMinutesSince(ctx context.Context, since time.Time) (*float64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var avg *float64
	if err := r.pool.QueryRow(ctx, `
SELECT AVG(EXTRACT(EPOCH FROM (completed_at - submitted_at)) / 60.0)
FROM review_records
WHERE completed_at >= $1 AND status = ANY('{approved,rejected}')
`, since).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average review duration: %w", err)
	}

	return avg, nil
}

func (r *ReviewRepo) countWhere(ctx context.Context, where string) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM review_records WHERE `+where).Scan(&count); err != nil {
		return 0, fmt.Errorf("count review records: %w", err)
	}

	return count, nil
}

func (r *ReviewRepo) resolveBlocked(ctx context.Context, q rowQuerier, reviewID int64) error {
	var exists bool
	if err := q.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM review_records WHERE id = $1)
`, reviewID).Scan(&exists); err != nil {
		return fmt.Errorf("resolve blocked transition: %w", err)
	}
	if !exists {
		return ErrReviewNotFound
	}
	return ErrInvalidTransition
}

func getByID(ctx context.Context, q rowQuerier, reviewID int64) (model.ReviewRecord, error) {
	record, err := scanReview(q.QueryRow(ctx, `
SELECT`+reviewColumns+`
FROM review_records
WHERE id = $1
LIMIT 1
`, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReviewRecord{}, ErrReviewNotFound
		}
		return model.ReviewRecord{}, fmt.Errorf("get review record: %w", err)
	}
	return record, nil
}

func scanReview(row pgx.Row) (model.ReviewRecord, error) {
	var record model.ReviewRecord
	var contentType, status, priority string
	var decision *string

	err := row.Scan(
		&record.ID,
		&contentType,
		&record.ReviewableID,
		&status,
		&priority,
		&record.AutomatedReason,
		&record.PreviewKey,
		&record.AssignedTo,
		&record.DecidedBy,
		&decision,
		&record.DecisionNotes,
		&record.RejectionReason,
		&record.Archived,
		&record.SubmittedAt,
		&record.AssignedAt,
		&record.CompletedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return model.ReviewRecord{}, err
	}

	record.ContentType = enums.ContentType(contentType)
	record.Status = enums.ReviewStatus(status)
	record.Priority = enums.Priority(priority)
	if decision != nil {
		d := enums.Decision(*decision)
		record.Decision = &d
	}

	return record, nil
}

func collectReviews(rows pgx.Rows) ([]model.ReviewRecord, error) {
	records := make([]model.ReviewRecord, 0)
	for rows.Next() {
		record, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review records: %w", err)
	}
	return records, nil
}
