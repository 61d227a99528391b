// Package services holds cross-cutting runtime services: the optional Redis
// payload cache and the scheduled re-ingestion loop.
package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheService fronts provider payloads with a TTL cache. The cache is
// strictly optional: when Redis is unreachable the service disables itself
// and every lookup misses.
type CacheService struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
	enabled bool
}

// NewCacheService connects to Redis at redisURL. A failed connection is
// logged and produces a disabled cache rather than an error.
func NewCacheService(redisURL string, ttl time.Duration, logger *logrus.Logger) *CacheService {
	svc := &CacheService{ttl: ttl, logger: logger}
	if redisURL == "" {
		return svc
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.WithError(err).Warn("Invalid Redis URL, payload cache disabled")
		return svc
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, payload cache disabled")
		return svc
	}

	svc.client = client
	svc.enabled = true
	logger.WithField("ttl", ttl.String()).Info("Payload cache connected")
	return svc
}

// Enabled reports whether the cache is live.
func (s *CacheService) Enabled() bool { return s != nil && s.enabled }

// GetPayload returns the cached payload for a key, if present.
func (s *CacheService) GetPayload(ctx context.Context, key string) ([]byte, bool) {
	if !s.Enabled() {
		return nil, false
	}
	payload, err := s.client.Get(ctx, s.cacheKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// SetPayload stores a payload under the configured TTL. Failures are logged
// and swallowed; caching is best effort.
func (s *CacheService) SetPayload(ctx context.Context, key string, payload []byte) {
	if !s.Enabled() {
		return
	}
	if err := s.client.Set(ctx, s.cacheKey(key), payload, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Debug("Payload cache write failed")
	}
}

// Invalidate drops every cached payload. Used by the ingest trigger endpoint
// to force fresh provider calls.
func (s *CacheService) Invalidate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	iter := s.client.Scan(ctx, 0, "payload:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close releases the Redis connection.
func (s *CacheService) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

func (s *CacheService) cacheKey(key string) string { return "payload:" + key }
