package stats

import (
	"context"
	"testing"
	"time"

	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
)

func TestFormatResponseTime(t *testing.T) {
	cases := []struct {
		name    string
		minutes *float64
		want    string
	}{
		{"empty window", nil, "N/A"},
		{"under an hour", ptr(30), "30m"},
		{"rounds minutes", ptr(44.6), "45m"},
		{"whole hours", ptr(120), "2h"},
		{"fractional hours", ptr(90), "1.5h"},
		{"exactly an hour", ptr(60), "1h"},
		{"rounds hour fraction", ptr(125), "2.1h"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatResponseTime(tc.minutes); got != tc.want {
				t.Fatalf("FormatResponseTime(%v) = %q, want %q", tc.minutes, got, tc.want)
			}
		})
	}
}

func TestFormatResponseTimeMeanOfDurations(t *testing.T) {
	// [10, 20, 30, 40, 50] minutes averages to 30m.
	durations := []float64{10, 20, 30, 40, 50}
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	mean := sum / float64(len(durations))

	if got := FormatResponseTime(&mean); got != "30m" {
		t.Fatalf("expected 30m, got %q", got)
	}
}

func TestGetStatsComputesAndCaches(t *testing.T) {
	counter := &stubCounter{
		pending:       5,
		approvedToday: 3,
		open:          7,
		avgMinutes:    ptr(90),
	}
	cache := &stubCache{}
	svc := NewService(counter, cache, 30*time.Second, 7*24*time.Hour, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 15, 30, 0, 0, time.UTC) }

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}

	want := model.DashboardStats{
		PendingCount:    5,
		ApprovedToday:   3,
		OpenReports:     7,
		AvgResponseTime: "1.5h",
	}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if !counter.approvedSince.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("approved window must start at midnight UTC, got %v", counter.approvedSince)
	}
	wantWindow := time.Date(2026, 2, 1, 15, 30, 0, 0, time.UTC).Add(-7 * 24 * time.Hour)
	if !counter.avgSince.Equal(wantWindow) {
		t.Fatalf("avg window must trail 7 days, got %v", counter.avgSince)
	}

	if cache.setCalls != 1 {
		t.Fatalf("expected one cache write, got %d", cache.setCalls)
	}

	// Second call is served from cache.
	if _, err := svc.GetStats(context.Background()); err != nil {
		t.Fatalf("get stats again: %v", err)
	}
	if counter.pendingCalls != 1 {
		t.Fatalf("expected cached hit to skip recompute, pending calls=%d", counter.pendingCalls)
	}
}

func TestGetStatsSurvivesBrokenCache(t *testing.T) {
	counter := &stubCounter{pending: 1}
	svc := NewService(counter, nil, 0, 0, nil)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats without cache: %v", err)
	}
	if stats.PendingCount != 1 {
		t.Fatalf("unexpected pending count %d", stats.PendingCount)
	}
	if stats.AvgResponseTime != "N/A" {
		t.Fatalf("expected N/A for empty window, got %q", stats.AvgResponseTime)
	}
}

func ptr(v float64) *float64 {
	return &v
}

type stubCounter struct {
	pending       int
	approvedToday int
	open          int
	avgMinutes    *float64

	pendingCalls  int
	approvedSince time.Time
	avgSince      time.Time
}

func (s *stubCounter) CountPending(_ context.Context) (int, error) {
	s.pendingCalls++
	return s.pending, nil
}

func (s *stubCounter) CountOpen(_ context.Context) (int, error) {
	return s.open, nil
}

func (s *stubCounter) CountApprovedSince(_ context.Context, since time.Time) (int, error) {
	s.approvedSince = since
	return s.approvedToday, nil
}

func (s *stubCounter) AvgReviewMinutesSince(_ context.Context, since time.Time) (*float64, error) {
	s.avgSince = since
	return s.avgMinutes, nil
}

type stubCache struct {
	stats    *model.DashboardStats
	setCalls int
}

func (c *stubCache) Get(_ context.Context) (model.DashboardStats, bool, error) {
	if c.stats == nil {
		return model.DashboardStats{}, false, nil
	}
	return *c.stats, true, nil
}

func (c *stubCache) Set(_ context.Context, stats model.DashboardStats, _ time.Duration) error {
	c.setCalls++
	c.stats = &stats
	return nil
}
