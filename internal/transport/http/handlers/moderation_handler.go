package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/egonyu/tesotunes-moderation/internal/services/auth"
	modsvc "github.com/egonyu/tesotunes-moderation/internal/services/moderation"
	"github.com/egonyu/tesotunes-moderation/internal/transport/http/dto"
	httperrors "github.com/egonyu/tesotunes-moderation/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Enqueue opens a pending review case. Called by content producers and
// automated filters, not by moderators.
func (h *ModerationHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.EnqueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.service.Enqueue(r.Context(), modsvc.EnqueueInput{
		ContentType:     req.ContentType,
		ReviewableID:    req.ReviewableID,
		Priority:        req.Priority,
		AutomatedReason: req.AutomatedReason,
		PreviewKey:      req.PreviewKey,
	})
	if err != nil {
		writeModerationError(w, err, "failed to enqueue review")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.ReviewResponse{Review: record})
}

func (h *ModerationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	page, err := h.service.Queue(r.Context(), modsvc.QueueQuery{
		Status:      r.URL.Query().Get("status"),
		ContentType: r.URL.Query().Get("content_type"),
		Page:        queryInt(r, "page"),
	})
	if err != nil {
		writeModerationError(w, err, "failed to load moderation queue")
		return
	}

	httperrors.Write(w, http.StatusOK, page)
}

func (h *ModerationHandler) PendingTopics(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	items, err := h.service.GetPendingTopics(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeModerationError(w, err, "failed to load pending topics")
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ModerationHandler) Reports(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	page, err := h.service.Reports(r.Context(), modsvc.ReportQuery{
		Bucket: r.URL.Query().Get("bucket"),
		Page:   queryInt(r, "page"),
	})
	if err != nil {
		writeModerationError(w, err, "failed to load report queue")
		return
	}

	httperrors.Write(w, http.StatusOK, page)
}

func (h *ModerationHandler) AssignReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	reviewID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid review id")
		return
	}

	record, assigned, err := h.service.Assign(r.Context(), reviewID, identity.ModeratorID)
	if err != nil {
		writeModerationError(w, err, "failed to assign review")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AssignResponse{Review: record, Assigned: assigned})
}

func (h *ModerationHandler) EscalateReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	reviewID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid review id")
		return
	}

	record, err := h.service.Escalate(r.Context(), reviewID, identity.ModeratorID)
	if err != nil {
		writeModerationError(w, err, "failed to escalate review")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewResponse{Review: record})
}

func (h *ModerationHandler) ApproveTopic(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	topicID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid topic id")
		return
	}

	var req dto.ApproveRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
			return
		}
	}

	record, err := h.service.ApproveTopic(r.Context(), topicID, identity.ModeratorID, req.Notes)
	if err != nil {
		writeModerationError(w, err, "failed to approve topic")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewResponse{Review: record})
}

func (h *ModerationHandler) RejectTopic(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	topicID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid topic id")
		return
	}

	var req dto.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.service.RejectTopic(r.Context(), topicID, identity.ModeratorID, req.Reason)
	if err != nil {
		writeModerationError(w, err, "failed to reject topic")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewResponse{Review: record})
}

func (h *ModerationHandler) ArchiveTopic(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	topicID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid topic id")
		return
	}

	record, err := h.service.ArchiveTopic(r.Context(), topicID, identity.ModeratorID)
	if err != nil {
		writeModerationError(w, err, "failed to archive topic")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewResponse{Review: record})
}

func (h *ModerationHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	topicID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid topic id")
		return
	}

	if err := h.service.DeleteTopic(r.Context(), topicID, identity.ModeratorID); err != nil {
		writeModerationError(w, err, "failed to delete topic")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ActionResponse{Success: true, Message: "topic deleted"})
}

func (h *ModerationHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	replyID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid reply id")
		return
	}

	if err := h.service.DeleteReply(r.Context(), replyID, identity.ModeratorID); err != nil {
		writeModerationError(w, err, "failed to delete reply")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ActionResponse{Success: true, Message: "reply deleted"})
}

func (h *ModerationHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.service.BulkApproveTopics, "failed to bulk approve topics")
}

func (h *ModerationHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.service.BulkDeleteTopics, "failed to bulk delete topics")
}

func (h *ModerationHandler) bulk(w http.ResponseWriter, r *http.Request, op func(context.Context, []int64, int64) (int, error), failMessage string) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.BulkTopicsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	succeeded, err := op(r.Context(), req.TopicIDs, identity.ModeratorID)
	if err != nil {
		writeModerationError(w, err, failMessage)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BulkResponse{
		Requested: len(req.TopicIDs),
		Succeeded: succeeded,
	})
}

func writeModerationError(w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, modsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, modsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "review not found")
	case errors.Is(err, modsvc.ErrInvalidState):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "INVALID_STATE",
			Message: "no permitted transition from the current state",
		})
	case errors.Is(err, modsvc.ErrRateLimited):
		var rateErr *modsvc.RateLimitError
		retryAfter := int64(0)
		if errors.As(err, &rateErr) {
			retryAfter = rateErr.RetryAfterSec
		}
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many bulk actions, slow down",
			RetryAfterSec: retryAfter,
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", internalMessage)
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func idParam(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
