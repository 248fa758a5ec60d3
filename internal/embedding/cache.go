package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 24 * time.Hour

var ErrCacheMiss = errors.New("key not found in cache")

// KV is the byte store the cache needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisKV stores cached vectors in Redis.
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(opts RedisOptions) *RedisKV {
	return &RedisKV{client: redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})}
}

// Ping checks connectivity.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}

// Cached wraps a Provider with a read-through cache. Cache failures are
// logged and bypassed; only the wrapped provider can fail a call.
type Cached struct {
	next   Provider
	kv     KV
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(next Provider, kv KV, model string, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, kv: kv, model: model, ttl: ttl, logger: logger}
}

func (c *Cached) Dimension() int {
	return c.next.Dimension()
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	buf, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		vec, decodeErr := decodeVector(buf, c.next.Dimension())
		if decodeErr == nil {
			c.logger.Debug("embedding cache hit", zap.String("key", key))
			return vec, nil
		}
		c.logger.Warn("discarding corrupt cached embedding", zap.String("key", key), zap.Error(decodeErr))
	case errors.Is(err, ErrCacheMiss):
	default:
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.kv.Set(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}

	return vec, nil
}

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "|" + strconv.Itoa(c.next.Dimension()) + "|" + text))
	return fmt.Sprintf("skillmatch:embedding:%s", hex.EncodeToString(sum[:]))
}
