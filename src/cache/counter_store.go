package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrFloatWithExpire atomically increments a float counter and sets a
// TTL only when the key has none, so later increments never extend the
// accounting window.
var incrFloatWithExpire = redis.NewScript(`
	local newval = redis.call('INCRBYFLOAT', KEYS[1], ARGV[1])
	if redis.call('TTL', KEYS[1]) == -1 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return newval
`)

var incrIntWithExpire = redis.NewScript(`
	local newval = redis.call('INCRBY', KEYS[1], ARGV[1])
	if redis.call('TTL', KEYS[1]) == -1 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return newval
`)

// RedisCounterStore implements models.CounterStore on go-redis. It is
// shared by the cost optimizer (budget counters) and the performance
// monitor (rolling metric counters).
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) GetFloat(ctx context.Context, key string) (float64, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(val, 64)
}

func (s *RedisCounterStore) GetInt(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *RedisCounterStore) IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	result, err := incrFloatWithExpire.Run(ctx, s.client, []string{key},
		strconv.FormatFloat(delta, 'f', 10, 64), int(ttl/time.Second)).Result()
	if err != nil {
		return 0, err
	}

	switch v := result.(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	default:
		return 0, nil
	}
}

func (s *RedisCounterStore) IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	return incrIntWithExpire.Run(ctx, s.client, []string{key},
		strconv.FormatInt(delta, 10), int(ttl/time.Second)).Int64()
}

// PushSample appends a value to a bounded sample list and trims it to
// the newest maxLen entries.
func (s *RedisCounterStore) PushSample(ctx context.Context, key string, value float64, maxLen int64, ttl time.Duration) error {
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, strconv.FormatFloat(value, 'f', 4, 64))
	pipe.LTrim(ctx, key, 0, maxLen-1)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisCounterStore) Samples(ctx context.Context, key string) ([]float64, error) {
	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	samples := make([]float64, 0, len(vals))
	for _, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		samples = append(samples, f)
	}
	return samples, nil
}
