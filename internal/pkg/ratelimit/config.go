package ratelimit

import (
	"context"
	"time"
)

// Limiter 判斷 key 這次請求是否放行
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type Config struct {
	Capacity int
	RatePS   float64 // tokens/秒
	// bucket 閒置多久後回收, 至少為補滿所需時間
	IdleTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Capacity: 100,
		RatePS:   10,
		IdleTTL:  time.Minute,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = d.RatePS
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = d.IdleTTL
	}
	if fill := c.fillDuration(); c.IdleTTL < fill {
		c.IdleTTL = fill
	}
	return c
}

// fillDuration 空 bucket 補滿所需時間
func (c Config) fillDuration() time.Duration {
	return time.Duration(float64(c.Capacity) / c.RatePS * float64(time.Second))
}
