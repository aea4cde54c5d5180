package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucket 單機版, 每個 key 一個 bucket, 取用時依經過時間補充
// 閒置超過 IdleTTL 的 bucket 會在之後的 Allow 中被清掉
type TokenBucket struct {
	cfg       Config
	mu        sync.Mutex
	buckets   map[string]*bucket
	nowFn     func() time.Time
	lastSweep time.Time
}

func NewTokenBucket(cfg Config) *TokenBucket {
	return &TokenBucket{
		cfg:     cfg.normalized(),
		buckets: make(map[string]*bucket),
		nowFn:   time.Now,
	}
}

func (t *TokenBucket) Allow(_ context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFn()
	t.sweep(now)

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(t.cfg.Capacity), lastRefill: now}
		t.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(t.cfg.Capacity), b.tokens+elapsed*t.cfg.RatePS)
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep 最多每個 IdleTTL 掃一次, 閒置的 bucket 已補滿, 刪掉與重建等價
func (t *TokenBucket) sweep(now time.Time) {
	if now.Sub(t.lastSweep) < t.cfg.IdleTTL {
		return
	}
	t.lastSweep = now
	for key, b := range t.buckets {
		if now.Sub(b.lastRefill) >= t.cfg.IdleTTL {
			delete(t.buckets, key)
		}
	}
}

func (t *TokenBucket) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

var _ Limiter = (*TokenBucket)(nil)
