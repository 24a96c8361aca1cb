package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/metrics"
)

// redisEmbeddingCache stores vectors in Redis. Redis failures never fail an embedding.
type redisEmbeddingCache struct {
	client redis.Cmdable
	next   Embedder
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisEmbeddingCache(client redis.Cmdable, next Embedder, ttl time.Duration, log *zap.Logger) Embedder {
	return &redisEmbeddingCache{
		client: client,
		next:   next,
		ttl:    ttl,
		log:    logger.OrNop(log),
	}
}

func (c *redisEmbeddingCache) Name() string {
	return c.next.Name()
}

func (c *redisEmbeddingCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + c.next.Name() + ":" + hex.EncodeToString(sum[:])
}

func (c *redisEmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if vec, ok := decodeVector(raw); ok {
			metrics.CacheHit()
			return vec, nil
		}
		metrics.CacheError()
		c.log.Warn("discarding corrupt cached embedding", zap.String("key", key), zap.Int("bytes", len(raw)))
	case errors.Is(err, redis.Nil):
		metrics.CacheMiss()
	default:
		metrics.CacheError()
		c.log.Warn("embedding cache read failed", zap.Error(err))
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		metrics.CacheError()
		c.log.Warn("embedding cache write failed", zap.Error(err))
	}

	return vec, nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, bool) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, false
	}

	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, true
}
