package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"go.uber.org/zap"
)

type streamRepository struct {
	client       *redis.Client
	logger       *zap.Logger
	blockTimeout time.Duration
}

// NewStreamRepository создает новый экземпляр StreamRepository.
// blockTimeout - сколько XREADGROUP ждёт новых сообщений.
func NewStreamRepository(client *redis.Client, logger *zap.Logger, blockTimeout time.Duration) repository.StreamRepository {
	if blockTimeout <= 0 {
		blockTimeout = time.Second
	}
	return &streamRepository{
		client:       client,
		logger:       logger,
		blockTimeout: blockTimeout,
	}
}

// CreateConsumerGroup создаёт consumer group для стрима (MKSTREAM), повторный вызов не ошибка
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			r.logger.Debug("Consumer group already exists",
				zap.String("stream", stream),
				zap.String("group", group))
			return nil
		}
		r.logger.Error("Failed to create consumer group",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("Consumer group created",
		zap.String("stream", stream),
		zap.String("group", group))
	return nil
}

// ConsumeBatch читает до count новых сообщений; пустой срез, если за blockTimeout ничего не пришло
func (r *streamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error) {
	result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(count),
		Block:    r.blockTimeout,
	}).Result()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read group %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range result {
		for _, msg := range s.Messages {
			data, ok := msg.Values["data"].(string)
			if !ok {
				// без поля data сообщение не разобрать; пустые данные уйдут в ack как невалидные
				r.logger.Warn("Message does not contain 'data' field", zap.String("message_id", msg.ID))
			}
			messages = append(messages, domain.StreamMessage{ID: msg.ID, Data: data})
		}
	}

	return messages, nil
}

// AckMessages подтверждает обработку пачки сообщений
func (r *streamRepository) AckMessages(ctx context.Context, stream, group string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		r.logger.Error("Failed to acknowledge messages",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Int("count", len(ids)),
			zap.Error(err))
		return fmt.Errorf("failed to acknowledge messages: %w", err)
	}

	r.logger.Debug("Messages acknowledged", zap.Int("count", len(ids)))
	return nil
}

// PublishToStream публикует JSON в поле data
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(jsonData)},
	}).Result()
	if err != nil {
		r.logger.Error("Failed to publish to stream", zap.String("stream", stream), zap.Error(err))
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("Message published to stream",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}
