package handlers

import (
	"net/http"

	authsvc "github.com/egonyu/tesotunes-moderation/internal/services/auth"
	modsvc "github.com/egonyu/tesotunes-moderation/internal/services/moderation"
	statssvc "github.com/egonyu/tesotunes-moderation/internal/services/stats"
	"github.com/egonyu/tesotunes-moderation/internal/transport/http/dto"
	httperrors "github.com/egonyu/tesotunes-moderation/internal/transport/http/errors"
)

type DashboardHandler struct {
	moderation *modsvc.Service
	stats      *statssvc.Service
}

func NewDashboardHandler(moderation *modsvc.Service, stats *statssvc.Service) *DashboardHandler {
	return &DashboardHandler{
		moderation: moderation,
		stats:      stats,
	}
}

func (h *DashboardHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.moderation == nil || h.stats == nil {
		writeInternal(w, "DASHBOARD_UNAVAILABLE", "dashboard services are unavailable")
		return
	}

	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load dashboard stats")
		return
	}

	recent, err := h.moderation.RecentForModerator(r.Context(), identity.ModeratorID)
	if err != nil {
		writeModerationError(w, err, "failed to load recent reviews")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DashboardResponse{
		Stats:  stats,
		Recent: recent,
	})
}
