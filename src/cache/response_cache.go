package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venturedeck/ai-engine/src/config"
	"github.com/venturedeck/ai-engine/src/models"
)

const keyPrefix = "aicache:"

// ResponseCache is the Redis-backed, content-addressed response cache.
// It is a pure optimization: storage errors are logged and reported to
// the caller as misses, never as failures.
type ResponseCache struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewResponseCache(redisCfg *config.RedisConfig, cacheCfg *config.CacheConfig) (*ResponseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &ResponseCache{
		client: client,
		cfg:    cacheCfg,
	}, nil
}

// NewResponseCacheWithClient wraps an existing Redis client. Used when
// the cache shares a connection with the counter store.
func NewResponseCacheWithClient(client *redis.Client, cacheCfg *config.CacheConfig) *ResponseCache {
	return &ResponseCache{client: client, cfg: cacheCfg}
}

// GenerateKey derives a deterministic key from the fields that define
// the logical request. UserID and SessionID are deliberately excluded:
// identical prompts from different users share one entry.
func (c *ResponseCache) GenerateKey(req *models.GenerationRequest) string {
	payload := fmt.Sprintf("%s|%s|%s|%d|%.4f",
		req.TaskType, req.Prompt, req.Context, req.MaxTokens, req.Temperature)
	sum := sha256.Sum256([]byte(payload))
	return keyPrefix + string(req.TaskType) + ":" + hex.EncodeToString(sum[:])[:16]
}

// Get returns the cached response with Cached set, or nil on miss.
// Expired entries and storage errors are both misses.
func (c *ResponseCache) Get(ctx context.Context, key string) (*models.GenerationResponse, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		log.Printf("WARN: cache get failed, treating as miss: %v", err)
		return nil, nil
	}

	var response models.GenerationResponse
	if err := json.Unmarshal([]byte(val), &response); err != nil {
		log.Printf("WARN: cache entry unreadable, treating as miss: %v", err)
		return nil, nil
	}

	response.Cached = true
	return &response, nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, resp *models.GenerationResponse, taskType models.TaskType) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttlFor(taskType)).Err()
}

// Invalidate bulk-deletes keys matching a pattern. Administrative
// cache-busting only, not part of the request hot path.
func (c *ResponseCache) Invalidate(ctx context.Context, pattern string) error {
	keys, err := c.client.Keys(ctx, keyPrefix+pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *ResponseCache) Close() error {
	return c.client.Close()
}

func (c *ResponseCache) ttlFor(taskType models.TaskType) time.Duration {
	var ttl time.Duration
	switch taskType {
	case models.TaskBusinessPlan:
		ttl = c.cfg.BusinessPlanTTL
	case models.TaskMarketAnalysis:
		ttl = c.cfg.MarketTTL
	case models.TaskSentimentAnalysis:
		ttl = c.cfg.SentimentTTL
	default:
		ttl = c.cfg.DefaultTTL
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	mult := c.cfg.TTLMultiplier
	if mult <= 0 {
		mult = 1.0
	}
	return time.Duration(float64(ttl) * mult)
}
