package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"DanceDeck/model"

	"github.com/go-redis/redis/v8"
)

const (
	videoKey     = "video:%s"    // String: Video JSON
	videoListKey = "videos:list" // String: []Video JSON，按最近更新排序
	DefaultTTL   = time.Hour
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// VideoCache 视频记录缓存
type VideoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVideoCache 创建视频缓存，ttl<=0 时使用 DefaultTTL
func NewVideoCache(client *redis.Client, ttl time.Duration) *VideoCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &VideoCache{client: client, ttl: ttl}
}

// Get 读取单条记录
func (c *VideoCache) Get(ctx context.Context, id string) (*model.Video, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	data, err := c.client.Get(ctx, fmt.Sprintf(videoKey, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	var v model.Video
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}
	return &v, nil
}

// Set 写入单条记录并使列表缓存失效
func (c *VideoCache) Set(ctx context.Context, v *model.Video) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(videoKey, v.ID), data, c.ttl)
	pipe.Del(ctx, videoListKey)
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate 删除单条记录和列表缓存
func (c *VideoCache) Invalidate(ctx context.Context, id string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.Del(ctx, fmt.Sprintf(videoKey, id), videoListKey).Err()
}

// GetList 读取列表缓存
func (c *VideoCache) GetList(ctx context.Context) ([]*model.Video, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	data, err := c.client.Get(ctx, videoListKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	var videos []*model.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video list: %w", err)
	}
	return videos, nil
}

// SetList 写入列表缓存
func (c *VideoCache) SetList(ctx context.Context, videos []*model.Video) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to marshal video list: %w", err)
	}
	return c.client.Set(ctx, videoListKey, data, c.ttl).Err()
}
