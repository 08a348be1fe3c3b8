package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"eventwizard/internal/drafts"
	"eventwizard/pkg/cache"
)

// Redis keeps snapshots as JSON documents with a sliding TTL
type Redis struct {
	cache cache.Service
	ttl   time.Duration
}

func NewRedis(c cache.Service, ttl time.Duration) *Redis {
	return &Redis{cache: c, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	var raw json.RawMessage
	if err := r.cache.Get(ctx, key, &raw); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, drafts.ErrDraftNotFound
		}
		return nil, err
	}
	return raw, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.cache.Set(ctx, key, json.RawMessage(value), r.ttl)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.cache.Ping(ctx)
}
