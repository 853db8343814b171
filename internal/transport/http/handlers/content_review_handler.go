package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/egonyu/tesotunes-moderation/internal/services/auth"
	modsvc "github.com/egonyu/tesotunes-moderation/internal/services/moderation"
	"github.com/egonyu/tesotunes-moderation/internal/transport/http/dto"
	httperrors "github.com/egonyu/tesotunes-moderation/internal/transport/http/errors"
)

// ContentReviewHandler is the generic decision surface addressing content by
// type and entity id rather than by review id.
type ContentReviewHandler struct {
	service *modsvc.Service
}

func NewContentReviewHandler(service *modsvc.Service) *ContentReviewHandler {
	return &ContentReviewHandler{service: service}
}

func (h *ContentReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentType := chi.URLParam(r, "type")
	entityID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	var req dto.ApproveRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
			return
		}
	}

	if _, err := h.service.ApproveContent(r.Context(), contentType, entityID, identity.ModeratorID, req.Notes); err != nil {
		writeModerationError(w, err, "failed to approve content")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Message: fmt.Sprintf("%s approved", contentType),
	})
}

func (h *ContentReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentType := chi.URLParam(r, "type")
	entityID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	var req dto.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if _, err := h.service.RejectContent(r.Context(), contentType, entityID, identity.ModeratorID, req.Reason); err != nil {
		writeModerationError(w, err, "failed to reject content")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Message: fmt.Sprintf("%s rejected", contentType),
	})
}
