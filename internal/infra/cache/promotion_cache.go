package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const promotionKeyPrefix = "promotion:code:"

// PromotionRedisCache はコード→プロモーションのキャッシュ（cache-aside）
type PromotionRedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPromotionRedisCache(client *redis.Client, ttl time.Duration) *PromotionRedisCache {
	return &PromotionRedisCache{client: client, ttl: ttl}
}

// NewClient は REDIS_ADDR から接続を作る
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       0,
		Protocol: 2,
	})
}

func promotionKey(code string) string {
	return promotionKeyPrefix + model.NormalizePromotionCode(code)
}

// 見つからなければ (zero, false, nil)
func (c *PromotionRedisCache) Get(ctx context.Context, code string) (model.Promotion, bool, error) {
	raw, err := c.client.Get(ctx, promotionKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Promotion{}, false, nil
	}
	if err != nil {
		return model.Promotion{}, false, fmt.Errorf("get promotion from cache: %w", err)
	}

	var p model.Promotion
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Promotion{}, false, fmt.Errorf("unmarshal cached promotion: %w", err)
	}
	return p, true, nil
}

func (c *PromotionRedisCache) Set(ctx context.Context, p model.Promotion) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal promotion %s: %w", p.Code, err)
	}
	if err := c.client.Set(ctx, promotionKey(p.Code), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache promotion %s: %w", p.Code, err)
	}
	return nil
}

// 更新・削除のときに呼ぶ（旧コードと新コードをまとめて消す）
func (c *PromotionRedisCache) Delete(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, code := range codes {
		pipe.Del(ctx, promotionKey(code))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("evict promotions: %w", err)
	}
	return nil
}

// Noop はREDIS_ADDRが空のとき用
type Noop struct{}

func (Noop) Get(context.Context, string) (model.Promotion, bool, error) {
	return model.Promotion{}, false, nil
}

func (Noop) Set(context.Context, model.Promotion) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }
