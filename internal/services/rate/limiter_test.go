package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/egonyu/tesotunes-moderation/internal/repo/redis"
)

func TestLimiterBlocksAfterBudget(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, 2)

	ctx := context.Background()
	moderatorID := int64(42)

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.AllowBulk(ctx, moderatorID)
		if err != nil {
			t.Fatalf("allow bulk #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowBulk(ctx, moderatorID)
	if err != nil {
		t.Fatalf("allow bulk #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third bulk action in window")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	mr.FastForward(61 * time.Second)

	retryAfter, allowed, err = limiter.AllowBulk(ctx, moderatorID)
	if err != nil {
		t.Fatalf("allow bulk after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterIsolatesModerators(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, 1)

	ctx := context.Background()

	if _, allowed, err := limiter.AllowBulk(ctx, 1); err != nil || !allowed {
		t.Fatalf("first moderator should be allowed: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.AllowBulk(ctx, 1); err != nil || allowed {
		t.Fatalf("first moderator should now be blocked: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.AllowBulk(ctx, 2); err != nil || !allowed {
		t.Fatalf("second moderator should be unaffected: allowed=%v err=%v", allowed, err)
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, client
}
