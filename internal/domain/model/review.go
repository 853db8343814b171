package model

import (
	"time"

	"github.com/egonyu/tesotunes-moderation/internal/domain/enums"
)

// ReviewRecord is one moderation case tracking a piece of content through the
// review lifecycle. The referenced entity is owned by its originating
// subsystem; the record only holds a weak back-reference to it.
type ReviewRecord struct {
	ID              int64              `json:"id"`
	ContentType     enums.ContentType  `json:"content_type"`
	ReviewableID    int64              `json:"reviewable_id"`
	Status          enums.ReviewStatus `json:"status"`
	Priority        enums.Priority     `json:"priority"`
	AutomatedReason *string            `json:"automated_reason,omitempty"`
	PreviewKey      *string            `json:"-"`
	AssignedTo      *int64             `json:"assigned_to,omitempty"`
	DecidedBy       *int64             `json:"decided_by,omitempty"`
	Decision        *enums.Decision    `json:"decision,omitempty"`
	DecisionNotes   *string            `json:"decision_notes,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
	Archived        bool               `json:"archived"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	AssignedAt      *time.Time         `json:"assigned_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ReviewDurationMinutes is the reporting-only duration between submission and
// completion. Zero for records that are not terminal yet.
func (r ReviewRecord) ReviewDurationMinutes() float64 {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.SubmittedAt).Minutes()
}
