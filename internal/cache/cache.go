// Package cache はRedisを使用した読み取りキャッシュを提供する。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound はキーが存在しない場合のエラー。
var ErrNotFound = errors.New("cache: key not found")

// Cache はバイト列を格納するキャッシュのインターフェース。
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache はRedisを使用したCache実装。
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache はredis:// 形式のURLからRedisCacheを生成し、疎通を確認する。
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client), nil
}

// NewRedisCacheWithClient は既存のクライアントからRedisCacheを生成する。
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get はキーの値を返す。存在しない場合はErrNotFoundを返す。
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set はTTL付きで値を保存する。
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close はクライアントを閉じる。
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GetJSON はキーの値をJSONとしてdestにデコードする。
func GetJSON(ctx context.Context, c Cache, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON はvalueをJSONにエンコードして保存する。
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// compile-time interface check
var _ Cache = (*RedisCache)(nil)
