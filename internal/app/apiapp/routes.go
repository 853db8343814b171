package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/egonyu/tesotunes-moderation/internal/services/auth"
	modsvc "github.com/egonyu/tesotunes-moderation/internal/services/moderation"
	statssvc "github.com/egonyu/tesotunes-moderation/internal/services/stats"
	"github.com/egonyu/tesotunes-moderation/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager        *authsvc.JWTManager
	ModerationService *modsvc.Service
	StatsService      *statssvc.Service
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	contentReviewHandler := handlers.NewContentReviewHandler(deps.ModerationService)
	dashboardHandler := handlers.NewDashboardHandler(deps.ModerationService, deps.StatsService)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	moderatorMW := RequireRole(authsvc.RoleModerator, authsvc.RoleAdmin)
	producerMW := RequireRole(authsvc.RoleService, authsvc.RoleAdmin)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/moderation", func(r chi.Router) {
		r.Use(authMW)

		r.With(producerMW).Post("/enqueue", moderationHandler.Enqueue)

		r.Group(func(r chi.Router) {
			r.Use(moderatorMW)

			r.Get("/", moderationHandler.Queue)
			r.Get("/pending", moderationHandler.PendingTopics)
			r.Get("/reports", moderationHandler.Reports)
			r.Get("/dashboard", dashboardHandler.Handle)

			r.Post("/reviews/{id}/assign", moderationHandler.AssignReview)
			r.Post("/reviews/{id}/escalate", moderationHandler.EscalateReview)

			r.Post("/topics/{id}/approve", moderationHandler.ApproveTopic)
			r.Post("/topics/{id}/reject", moderationHandler.RejectTopic)
			r.Post("/topics/{id}/archive", moderationHandler.ArchiveTopic)
			r.Post("/topics/{id}/delete", moderationHandler.DeleteTopic)
			r.Post("/replies/{id}/delete", moderationHandler.DeleteReply)

			r.Post("/bulk-approve", moderationHandler.BulkApprove)
			r.Post("/bulk-delete", moderationHandler.BulkDelete)
		})
	})

	r.Route("/moderator/content", func(r chi.Router) {
		r.Use(authMW, moderatorMW)

		r.Post("/{type}/{id}/approve", contentReviewHandler.Approve)
		r.Post("/{type}/{id}/reject", contentReviewHandler.Reject)
	})
}
