package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"go.uber.org/zap"
)

const layerMetadataKeyPrefix = "layer:meta:"

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger.With(zap.String("component", "layer_cache")),
	}
}

func layerMetadataKey(layer string) string {
	return layerMetadataKeyPrefix + layer
}

// GetLayerMetadata получает сводку по слою; битое значение считается промахом
func (r *cacheRepository) GetLayerMetadata(ctx context.Context, layer string) (*domain.LayerMetadata, error) {
	key := layerMetadataKey(layer)

	data, err := r.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var meta domain.LayerMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		r.logger.Warn("Dropping undecodable layer metadata", zap.String("layer", layer), zap.Error(err))
		return nil, nil
	}

	r.logger.Debug("Layer metadata cache hit", zap.String("layer", layer))
	return &meta, nil
}

// SetLayerMetadata сохраняет сводку по слою
func (r *cacheRepository) SetLayerMetadata(ctx context.Context, meta *domain.LayerMetadata, ttl time.Duration) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal layer metadata: %w", err)
	}

	key := layerMetadataKey(meta.Dataset)
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *cacheRepository) DeleteLayerMetadata(ctx context.Context, layer string) error {
	key := layerMetadataKey(layer)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
