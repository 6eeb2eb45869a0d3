package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:pages"

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

// RedisCatalogCache stores every cached page as a field of a single hash so
// invalidation is one DEL.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisCatalogCache) GetPage(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error) {
	data, err := r.client.HGet(ctx, catalogKey, pageField(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}

	var page domain.ProductPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("unmarshal catalog page failed: %w", err)
	}
	return &page, nil
}

func (r *RedisCatalogCache) SetPage(ctx context.Context, query domain.ProductQuery, page *domain.ProductPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal catalog page failed: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, catalogKey, pageField(query), data)
	pipe.Expire(ctx, catalogKey, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (r *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func pageField(q domain.ProductQuery) string {
	return fmt.Sprintf("limit=%d|page=%d|sort=%s|query=%s", q.Limit, q.Page, q.Sort, q.Query)
}
