package prefetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/domain/repository"
	"github.com/urban-context/internal/infrastructure/upstream"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/metrics"
	"github.com/urban-context/internal/usecase"
	"github.com/urban-context/internal/worker"
	"go.uber.org/zap"
)

const (
	errorPause   = time.Second
	retryBackoff = time.Second
)

// Outcomes for prefetch metrics
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeInvalid = "invalid"
)

// Worker прогревает OSM и погодный кеши по событиям stream:context:prefetch
type Worker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	osmUC        usecase.OSMMetricsProvider
	weatherUC    usecase.WeatherProvider
	consumerName string
	batchSize    int
	maxRetries   int
	maxRadiusM   float64
}

// NewWorker создает новый Worker
func NewWorker(
	streamRepo repository.StreamRepository,
	osmUC usecase.OSMMetricsProvider,
	weatherUC usecase.WeatherProvider,
	cfg *config.Config,
	logger *zap.Logger,
) *Worker {
	hostname, _ := os.Hostname()

	return &Worker{
		BaseWorker:   worker.NewBaseWorker("context-prefetch", cfg.Worker.ConsumerGroup, logger),
		streamRepo:   streamRepo,
		osmUC:        osmUC,
		weatherUC:    weatherUC,
		consumerName: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		batchSize:    cfg.Worker.BatchSize,
		maxRetries:   cfg.Worker.MaxRetries,
		maxRadiusM:   cfg.Enrich.MaxRadiusM,
	}
}

// Start создаёт consumer group и обрабатывает пачки до остановки
func (w *Worker) Start(ctx context.Context) error {
	log := w.Logger()
	log.Info("Starting prefetch worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.batchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamContextPrefetch, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			log.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := w.ProcessBatch(ctx); err != nil {
			log.Error("Failed to process batch", zap.Error(err))
			if !w.Pause(ctx, errorPause) {
				return nil
			}
		}
	}
}

// ProcessBatch читает пачку событий, прогревает кеши и подтверждает все прочитанные сообщения.
// Возвращает число прочитанных сообщений.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(ctx, domain.StreamContextPrefetch, w.ConsumerGroup(), w.consumerName, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)

		event, err := parseMessage(msg)
		if err != nil {
			w.Logger().Warn("Skipping malformed prefetch event",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			metrics.PrefetchEvents.WithLabelValues(OutcomeInvalid).Inc()
			continue
		}

		done := w.Handle(ctx, event)
		if err := w.streamRepo.PublishToStream(ctx, domain.StreamContextPrefetched, done); err != nil {
			w.Logger().Error("Failed to publish prefetch result",
				zap.String("event_id", event.EventID.String()),
				zap.Error(err))
		}
	}

	// сообщение без ACK остаётся в pending и не перечитывается через ">"
	if err := w.streamRepo.AckMessages(ctx, domain.StreamContextPrefetch, w.ConsumerGroup(), ids); err != nil {
		w.Logger().Error("Failed to ack messages", zap.Error(err))
	}

	return len(messages), nil
}

// Handle прогревает оба кеша для события; ошибки секций попадают в результат
func (w *Worker) Handle(ctx context.Context, event *domain.PrefetchEvent) *domain.PrefetchDoneEvent {
	done := &domain.PrefetchDoneEvent{EventID: event.EventID}
	log := w.Logger().With(zap.String("event_id", event.EventID.String()))

	if err := event.Validate(w.maxRadiusM); err != nil {
		log.Warn("Invalid prefetch event", zap.Error(err))
		metrics.PrefetchEvents.WithLabelValues(OutcomeInvalid).Inc()
		done.Errors = append(done.Errors, err.Error())
		return done
	}

	err := w.withRetry(ctx, func() error {
		res, err := w.osmUC.GetOrCompute(ctx, event.Lat, event.Lon, event.RadiusM, event.Refresh)
		if err != nil {
			return err
		}
		if res.Degraded {
			return errors.ErrUpstreamUnavailable.WithMessage("OSM metrics incomplete")
		}
		cached := res.Cached
		done.OSMCached = &cached
		return nil
	})
	if err != nil {
		log.Warn("OSM prefetch failed", zap.Error(err))
		done.Errors = append(done.Errors, "osm: "+err.Error())
	}

	if event.WantsWeather() {
		err := w.withRetry(ctx, func() error {
			r, err := usecase.ParseDateRange(event.Start, event.End)
			if err != nil {
				return err
			}
			records, err := w.weatherUC.GetOrFetch(ctx, event.Lat, event.Lon, r)
			if err != nil {
				return err
			}
			done.WeatherDays = len(records)
			return nil
		})
		if err != nil {
			log.Warn("Weather prefetch failed", zap.Error(err))
			done.Errors = append(done.Errors, "weather: "+err.Error())
		}
	}

	outcome := OutcomeOK
	if len(done.Errors) > 0 {
		outcome = OutcomePartial
	}
	metrics.PrefetchEvents.WithLabelValues(outcome).Inc()

	return done
}

// withRetry повторяет fn до maxRetries раз; ошибки валидации не повторяются
func (w *Worker) withRetry(ctx context.Context, fn func() error) error {
	attempts := w.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil || errors.IsInvalidInput(err) {
			return err
		}
		if attempt < attempts {
			if sleepErr := upstream.Sleep(ctx, upstream.LinearBackoff(retryBackoff, attempt)); sleepErr != nil {
				return err
			}
		}
	}
	return err
}

func parseMessage(msg domain.StreamMessage) (*domain.PrefetchEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("missing 'data' field")
	}
	var event domain.PrefetchEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}
