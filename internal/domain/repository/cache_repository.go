package repository

import (
	"context"
	"time"

	"github.com/urban-context/internal/domain"
)

// CacheRepository - Redis-кеш сводок по слоям
type CacheRepository interface {
	// GetLayerMetadata возвращает nil при промахе
	GetLayerMetadata(ctx context.Context, layer string) (*domain.LayerMetadata, error)

	SetLayerMetadata(ctx context.Context, meta *domain.LayerMetadata, ttl time.Duration) error

	// DeleteLayerMetadata сбрасывает сводку после перезагрузки слоя
	DeleteLayerMetadata(ctx context.Context, layer string) error
}
