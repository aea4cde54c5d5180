package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	-- key 不存在時以滿桶初始化
	if tokens == nil then
		tokens = capacity
		lastRefill = now
	end

	local elapsed = (now - lastRefill) / 1000000000
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

// RedisTokenBucket 多個 instance 共用同一組 bucket
type RedisTokenBucket struct {
	cfg    Config
	client redis.Scripter
	prefix string
}

func NewRedisTokenBucket(client redis.Scripter, prefix string, cfg Config) *RedisTokenBucket {
	return &RedisTokenBucket{
		cfg:    cfg.normalized(),
		client: client,
		prefix: prefix,
	}
}

// Allow redis 無法使用時放行, 只記 log
func (r *RedisTokenBucket) Allow(ctx context.Context, key string) bool {
	result, err := tokenBucketScript.Run(ctx, r.client,
		[]string{r.prefix + ":" + key},
		r.cfg.Capacity,
		r.cfg.RatePS,
		time.Now().UnixNano(),
		int(r.cfg.IdleTTL.Seconds()),
	).Int64()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis rate limit unavailable")
		return true
	}
	return result == 1
}

var _ Limiter = (*RedisTokenBucket)(nil)
