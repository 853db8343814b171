package dto

import "github.com/egonyu/tesotunes-moderation/internal/domain/model"

type EnqueueRequest struct {
	ContentType     string `json:"content_type"`
	ReviewableID    int64  `json:"reviewable_id"`
	Priority        string `json:"priority,omitempty"`
	AutomatedReason string `json:"automated_reason,omitempty"`
	PreviewKey      string `json:"preview_key,omitempty"`
}

type ApproveRequest struct {
	Notes string `json:"notes,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type BulkTopicsRequest struct {
	TopicIDs []int64 `json:"topic_ids"`
}

type BulkResponse struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
}

type ReviewResponse struct {
	Review model.ReviewRecord `json:"review"`
}

type AssignResponse struct {
	Review   model.ReviewRecord `json:"review"`
	Assigned bool               `json:"assigned"`
}
