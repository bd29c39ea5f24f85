/*
 * @module service/storage/result_cache
 * @description 基于Redis的处理结果只读缓存，供外部消费方快速读取结果快照
 * @architecture 分层架构 - 存储层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 结果登记 -> 序列化写入 -> TTL过期或显式删除
 * @rules 缓存是尽力而为的旁路，任何失败不影响主存储路径
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/storage/result_store.go
 */

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"insight-service/service/models"
)

// cacheKeyPrefix 缓存键前缀
const cacheKeyPrefix = "insight:result:"

// defaultCacheTTL 缓存默认过期时间
const defaultCacheTTL = 24 * time.Hour

// cachedResult 缓存中的结果快照（不含表格数据）
type cachedResult struct {
	ID            string                 `json:"id"`
	Schema        models.DataSchema      `json:"schema"`
	QualityReport models.QualityReport   `json:"quality_report"`
	Insights      models.DomainInsights  `json:"insights"`
	Package       *models.InsightPackage `json:"insight_package,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ResultCache Redis结果缓存
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache 创建结果缓存实例
func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ResultCache{client: client, ttl: ttl}
}

// NewResultCacheFromEnv 从 REDIS_ADDR 环境变量构建缓存，未配置时返回 nil
func NewResultCacheFromEnv() *ResultCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return NewResultCache(client, defaultCacheTTL)
}

// Put 写入结果快照
func (c *ResultCache) Put(stored *StoredResult) error {
	snapshot := cachedResult{
		ID:            stored.ID,
		Schema:        stored.Result.Schema,
		QualityReport: stored.Result.QualityReport,
		Insights:      stored.Result.Insights,
		Package:       stored.Package,
		CreatedAt:     stored.CreatedAt,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("结果快照序列化失败: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.client.Set(ctx, cacheKeyPrefix+stored.ID, data, c.ttl).Err()
}

// Delete 删除结果快照
func (c *ResultCache) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.client.Del(ctx, cacheKeyPrefix+id).Err()
}
