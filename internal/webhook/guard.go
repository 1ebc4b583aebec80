package webhook

import (
	"context"
	"time"

	"github.com/callaback/callaback-dashboard/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// EventGuard deduplicates provider webhook deliveries. Claim returns true
// when the caller owns the first delivery of an event and should process
// it; false means another delivery already claimed it.
type EventGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

const eventClaimTTL = 24 * time.Hour

// RedisEventGuard claims event keys in redis with a TTL.
type RedisEventGuard struct {
	rdb *redis.Client
}

func NewRedisEventGuard(rdb *redis.Client) *RedisEventGuard {
	return &RedisEventGuard{rdb: rdb}
}

func (g *RedisEventGuard) Claim(ctx context.Context, key string) (bool, error) {
	return utils.ClaimEventKey(ctx, g.rdb, "webhook:event:"+key, eventClaimTTL)
}

func (g *RedisEventGuard) Release(ctx context.Context, key string) {
	_ = utils.ReleaseEventKey(ctx, g.rdb, "webhook:event:"+key)
}

// NopEventGuard never deduplicates. Used when redis is unavailable and in
// tests that don't exercise redelivery.
type NopEventGuard struct{}

func (NopEventGuard) Claim(context.Context, string) (bool, error) { return true, nil }
func (NopEventGuard) Release(context.Context, string)             {}
