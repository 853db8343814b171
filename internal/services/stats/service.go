package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
)

type ReviewCounter interface {
	CountPending(ctx context.Context) (int, error)
	CountOpen(ctx context.Context) (int, error)
	CountApprovedSince(ctx context.Context, since time.Time) (int, error)
	AvgReviewMinutesSince(ctx context.Context, since time.Time) (*float64, error)
}

type Cache interface {
	Get(ctx context.Context) (model.DashboardStats, bool, error)
	Set(ctx context.Context, stats model.DashboardStats, ttl time.Duration) error
}

// Service computes the dashboard aggregates. Results are cached with a short
// TTL; a broken cache degrades to recomputing on every call.
type Service struct {
	reviews  ReviewCounter
	cache    Cache
	cacheTTL time.Duration
	window   time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewService(reviews ReviewCounter, cache Cache, cacheTTL, window time.Duration, log *zap.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		reviews:  reviews,
		cache:    cache,
		cacheTTL: cacheTTL,
		window:   window,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) GetStats(ctx context.Context) (model.DashboardStats, error) {
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("stats cache read failed", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	pending, err := s.reviews.CountPending(ctx)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("count pending: %w", err)
	}

	approvedToday, err := s.reviews.CountApprovedSince(ctx, dayStart)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("count approved today: %w", err)
	}

	openReports, err := s.reviews.CountOpen(ctx)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("count open reports: %w", err)
	}

	avgMinutes, err := s.reviews.AvgReviewMinutesSince(ctx, now.Add(-s.window))
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("average response time: %w", err)
	}

	stats := model.DashboardStats{
		PendingCount:    pending,
		ApprovedToday:   approvedToday,
		OpenReports:     openReports,
		AvgResponseTime: FormatResponseTime(avgMinutes),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats, s.cacheTTL); err != nil {
			s.log.Warn("stats cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

// FormatResponseTime renders a mean review duration for the dashboard: whole
// minutes under an hour, hours with at most one decimal above, "N/A" when no
// record completed in the window.
func FormatResponseTime(minutes *float64) string {
	if minutes == nil {
		return "N/A"
	}

	m := *minutes
	if m < 0 {
		m = 0
	}
	if m < 60 {
		return fmt.Sprintf("%dm", int(math.Round(m)))
	}

	hours := math.Round(m/60*10) / 10
	if hours == math.Trunc(hours) {
		return fmt.Sprintf("%dh", int(hours))
	}
	return fmt.Sprintf("%.1fh", hours)
}
