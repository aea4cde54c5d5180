package ratelimit

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RedisTokenBucketTestSuite struct {
	suite.Suite
	client *redis.Client
	ctx    context.Context
}

func TestRedisTokenBucketSuite(t *testing.T) {
	if os.Getenv("CRM_TEST_REDIS_ADDR") == "" {
		t.Skip("CRM_TEST_REDIS_ADDR not set")
	}
	suite.Run(t, new(RedisTokenBucketTestSuite))
}

func (s *RedisTokenBucketTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.client = redis.NewClient(&redis.Options{Addr: os.Getenv("CRM_TEST_REDIS_ADDR")})
	require.NoError(s.T(), s.client.Ping(s.ctx).Err())
}

func (s *RedisTokenBucketTestSuite) SetupTest() {
	require.NoError(s.T(), s.client.FlushDB(s.ctx).Err())
}

func (s *RedisTokenBucketTestSuite) TearDownSuite() {
	s.client.Close()
}

func (s *RedisTokenBucketTestSuite) TestBasicRateLimit() {
	limiter := NewRedisTokenBucket(s.client, "crm:ratelimit", Config{Capacity: 3, RatePS: 0.001})

	for i := 0; i < 3; i++ {
		require.True(s.T(), limiter.Allow(s.ctx, "basic"), "應該允許第 %d 次請求", i+1)
	}
	require.False(s.T(), limiter.Allow(s.ctx, "basic"), "超過容量限制應該被拒絕")
}

func (s *RedisTokenBucketTestSuite) TestMultipleKeys() {
	limiter := NewRedisTokenBucket(s.client, "crm:ratelimit", Config{Capacity: 1, RatePS: 0.001})

	require.True(s.T(), limiter.Allow(s.ctx, "key1"))
	require.False(s.T(), limiter.Allow(s.ctx, "key1"))
	require.True(s.T(), limiter.Allow(s.ctx, "key2"))
}

func (s *RedisTokenBucketTestSuite) TestUnavailableRedisAllows() {
	broken := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer broken.Close()

	limiter := NewRedisTokenBucket(broken, "crm:ratelimit", Config{Capacity: 1})
	require.True(s.T(), limiter.Allow(s.ctx, "any"))
	require.True(s.T(), limiter.Allow(s.ctx, "any"))
}
