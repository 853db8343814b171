package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/egonyu/tesotunes-moderation/internal/domain/model"
)

const statsCacheKey = "moderation:dashboard_stats"

// StatsCacheRepo keeps the dashboard aggregates out of Postgres for the short
// window between recomputations. Invalidation is TTL-only.
type StatsCacheRepo struct {
	client *goredis.Client
}

func NewStatsCacheRepo(client *goredis.Client) *StatsCacheRepo {
	return &StatsCacheRepo{client: client}
}

func (r *StatsCacheRepo) Get(ctx context.Context) (model.DashboardStats, bool, error) {
	if r.client == nil {
		return model.DashboardStats{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.DashboardStats{}, false, nil
		}
		return model.DashboardStats{}, false, fmt.Errorf("get cached stats: %w", err)
	}

	var stats model.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return model.DashboardStats{}, false, fmt.Errorf("unmarshal cached stats: %w", err)
	}

	return stats, true, nil
}

func (r *StatsCacheRepo) Set(ctx context.Context, stats model.DashboardStats, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats for cache: %w", err)
	}

	if err := r.client.Set(ctx, statsCacheKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached stats: %w", err)
	}

	return nil
}
