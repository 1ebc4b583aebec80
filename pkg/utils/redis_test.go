package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{}.withDefaults()
	if cfg.DialTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		t.Fatalf("expected timeout defaults, got %+v", cfg)
	}
	if cfg.PoolSize <= 0 || cfg.PoolTimeout <= 0 {
		t.Fatalf("expected pool defaults, got %+v", cfg)
	}
	if cfg.PingTimeout <= 0 {
		t.Fatalf("expected ping timeout default, got %+v", cfg)
	}
}

func TestRedisConfigDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := RedisConfig{DialTimeout: time.Minute, PoolSize: 3}.withDefaults()
	if cfg.DialTimeout != time.Minute || cfg.PoolSize != 3 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}

func TestClaimEventKey_ValidatesInputs(t *testing.T) {
	ctx := context.Background()
	// Never dialed; validation fails before any command is issued.
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer rdb.Close()

	if _, err := ClaimEventKey(ctx, nil, "call:CA1", time.Hour); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := ClaimEventKey(ctx, rdb, "", time.Hour); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := ClaimEventKey(ctx, rdb, "call:CA1", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}

func TestReleaseEventKey_ValidatesInputs(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer rdb.Close()

	if err := ReleaseEventKey(ctx, nil, "call:CA1"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseEventKey(ctx, rdb, ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
