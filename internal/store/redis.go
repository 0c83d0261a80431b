package store

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Redis manages the Redis connection and implements KVStore against it.
// Connection setup follows the teacher's db.Redis wrapper.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed KVStore. An empty addr yields a
// disconnected handle usable as a no-op placeholder in dev mode.
func NewRedis(addr string) (*Redis, error) {
	if addr == "" {
		return &Redis{}, nil
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Println("Connected to Redis")
	return &Redis{client: client}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	if r != nil && r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client returns the underlying Redis client, for callers that need the
// raw driver (e.g. health checks).
func (r *Redis) Client() *redis.Client {
	return r.client
}

// IsConnected returns true if Redis is connected.
func (r *Redis) IsConnected() bool {
	return r.client != nil
}

func (r *Redis) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key).Result()
}

func (r *Redis) HashSet(ctx context.Context, key string, fields map[string]string) (int, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	n, err := r.client.HSet(ctx, key, args...).Result()
	return int(n), err
}

func (r *Redis) HashIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	return r.client.HIncrBy(ctx, key, field, delta).Result()
}

func (r *Redis) HashSetNX(ctx context.Context, key, field, value string) (bool, error) {
	return r.client.HSetNX(ctx, key, field, value).Result()
}

func (r *Redis) ZSetIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	return r.client.ZIncrBy(ctx, key, delta, member).Result()
}

func (r *Redis) ZRangeWithScores(ctx context.Context, key string, min, max string, reverse bool) ([]ScoredMember, error) {
	var zs []redis.Z
	var err error
	if reverse {
		// ZRevRangeByScore expects max before min.
		zs, err = r.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{Min: min, Max: max}).Result()
	} else {
		zs, err = r.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{Min: min, Max: max}).Result()
	}
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, len(zs))
	for i, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprintf("%v", z.Member)
		}
		out[i] = ScoredMember{Member: member, Score: z.Score}
	}
	return out, nil
}

func (r *Redis) SetAdd(ctx context.Context, key string, members ...string) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	n, err := r.client.SAdd(ctx, key, args...).Result()
	return int(n), err
}

func (r *Redis) SetRemove(ctx context.Context, key string, members ...string) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	n, err := r.client.SRem(ctx, key, args...).Result()
	return int(n), err
}

func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *Redis) SetScan(ctx context.Context, key, cursor string, count int64) (ScanResult, error) {
	members, next, err := r.client.SScan(ctx, key, parseCursor(cursor), "", count).Result()
	if err != nil {
		return ScanResult{}, err
	}
	return ScanResult{Cursor: fmt.Sprintf("%d", next), Members: members}, nil
}

func parseCursor(cursor string) uint64 {
	if cursor == "" {
		return 0
	}
	var v uint64
	_, _ = fmt.Sscanf(cursor, "%d", &v)
	return v
}
