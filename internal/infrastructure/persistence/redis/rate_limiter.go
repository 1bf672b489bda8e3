package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// slidingWindow 清理窗口外记录、计数，未超限时记录本次请求，整体原子执行。
// KEYS[1] 限流键；ARGV: 当前毫秒, 窗口起点毫秒, 上限, 成员, 过期毫秒。返回 {allowed, count}。
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
	return {0, count}
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, count + 1}
`)

// RateLimiter 基于有序集合的滑动窗口限流器
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 判断 key 在窗口内是否还有配额，有则占用一次
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	defer span.End()
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
	)

	now := time.Now().UnixMilli()
	res, err := slidingWindow.Run(ctx, l.client.rdb, []string{key},
		now,
		now-window.Milliseconds(),
		limit,
		fmt.Sprintf("%d-%s", now, uuid.NewString()),
		(2 * window).Milliseconds(),
	).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("rate limit %s: unexpected script reply %v", key, res)
	}

	allowed := res[0] == 1
	span.SetAttributes(
		attribute.Int64("ratelimit.count", res[1]),
		attribute.Bool("ratelimit.allowed", allowed),
	)
	return allowed, nil
}

// Remaining 窗口内剩余配额，不占用
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	since := time.Now().UnixMilli() - window.Milliseconds()
	n, err := l.client.rdb.ZCount(ctx, key, "("+strconv.FormatInt(since, 10), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return max(limit-int(n), 0), nil
}

// BuildRateLimitKey 限流键：客户端 + 接口
func BuildRateLimitKey(clientID, endpoint string) string {
	return "psst:ratelimit:" + clientID + ":" + endpoint
}
