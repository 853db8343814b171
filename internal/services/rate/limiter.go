package rate

import (
	"context"
	"fmt"
	"time"
)

type Store interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter bounds how many bulk moderation actions a single moderator may run
// per minute. Single-record actions are never limited.
type Limiter struct {
	store        Store
	maxPerMinute int
}

func NewLimiter(store Store, maxPerMinute int) *Limiter {
	if maxPerMinute <= 0 {
		maxPerMinute = 10
	}

	return &Limiter{
		store:        store,
		maxPerMinute: maxPerMinute,
	}
}

func (l *Limiter) AllowBulk(ctx context.Context, moderatorID int64) (int64, bool, error) {
	if l.store == nil {
		return 0, false, fmt.Errorf("rate store is nil")
	}
	if moderatorID <= 0 {
		return 0, false, fmt.Errorf("invalid moderator id")
	}

	key := fmt.Sprintf("mod:bulk:%d:1m", moderatorID)
	count, ttl, err := l.store.IncrementWindow(ctx, key, time.Minute)
	if err != nil {
		return 0, false, err
	}

	if count > int64(l.maxPerMinute) {
		retryAfter := int64(ttl / time.Second)
		if retryAfter <= 0 {
			retryAfter = 1
		}
		return retryAfter, false, nil
	}

	return 0, true, nil
}
