// Package redis provides the optional persistent cache tier: answered
// bundles and computed embeddings survive process restarts. Malformed
// or unreadable values are treated as misses, never as failures.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/storage/models"
	"github.com/svtr-ai/ragcore/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetBundle(ctx context.Context, key string, bundle models.ContextBundle, ttl time.Duration) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("bundle:%s", key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set bundle cache: %w", err)
	}

	logger.Debug("Bundle cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// GetBundle returns false on missing and on corrupt entries. Corrupt
// entries are deleted so they stop costing a parse on every lookup.
func (c *Client) GetBundle(ctx context.Context, key string) (models.ContextBundle, bool) {
	var bundle models.ContextBundle

	data, err := c.client.Get(ctx, fmt.Sprintf("bundle:%s", key)).Bytes()
	if err == redis.Nil {
		return bundle, false
	}
	if err != nil {
		logger.Warn("Failed to read bundle cache", zap.String("key", key), zap.Error(err))
		return bundle, false
	}

	if err := json.Unmarshal(data, &bundle); err != nil {
		logger.Warn("Corrupt bundle cache entry dropped", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, fmt.Sprintf("bundle:%s", key))
		return models.ContextBundle{}, false
	}

	logger.Debug("Bundle cache hit", zap.String("key", key))
	return bundle, true
}

func (c *Client) SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("embedding:%s", textHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set embedding cache: %w", err)
	}

	logger.Debug("Embedding cached", zap.String("text_hash", textHash))
	return nil
}

func (c *Client) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("embedding:%s", textHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedding cache: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		c.client.Del(ctx, fmt.Sprintf("embedding:%s", textHash))
		return nil, false, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}

	logger.Debug("Embedding cache hit", zap.String("text_hash", textHash))
	return embedding, true, nil
}

// InvalidateBundles drops every persisted bundle, e.g. after a
// knowledge-base reindex.
func (c *Client) InvalidateBundles(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "bundle:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Bundle cache invalidated")
	return nil
}
