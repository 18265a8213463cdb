package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/infrastructure/upstream"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client - клиент Overpass API с повторами и ограничением частоты
type Client struct {
	httpClient *http.Client
	url        string
	maxRetries int
	backoff    time.Duration
	postDelay  time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient создает клиент Overpass; лимитер общий для всех вызывающих
func NewClient(cfg *config.OverpassConfig, logger *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		maxRetries: maxRetries,
		backoff:    cfg.Backoff,
		postDelay:  cfg.RateLimitDelay,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger.With(zap.String("upstream", metrics.UpstreamOverpass)),
	}
}

// Query выполняет запрос Overpass QL.
// 429, ошибки транспорта, не-2xx и нечитаемое тело считаются неудачной попыткой.
// После исчерпания попыток возвращается ErrUpstreamUnavailable.
func (c *Client) Query(ctx context.Context, query string) (*domain.OverpassResult, error) {
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("overpass rate limiter: %w", err)
		}

		result, err := c.do(ctx, query)
		if err == nil {
			// пауза между успешными запросами, вежливость к публичному инстансу
			_ = upstream.Sleep(ctx, c.postDelay)
			return result, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("Overpass attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(err))

		if attempt < c.maxRetries {
			if err := upstream.Sleep(ctx, upstream.LinearBackoff(c.backoff, attempt)); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Error("Overpass retries exhausted", zap.Int("attempts", c.maxRetries))
	return nil, errors.ErrUpstreamUnavailable
}

func (c *Client) do(ctx context.Context, query string) (*domain.OverpassResult, error) {
	started := time.Now()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(metrics.UpstreamOverpass, upstream.OutcomeTransport, started)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.ObserveUpstream(metrics.UpstreamOverpass, upstream.OutcomeRateLimited, started)
		return nil, fmt.Errorf("overpass rate limited")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.ObserveUpstream(metrics.UpstreamOverpass, upstream.OutcomeHTTPError, started)
		return nil, fmt.Errorf("overpass API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result domain.OverpassResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.ObserveUpstream(metrics.UpstreamOverpass, upstream.OutcomeDecode, started)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	metrics.ObserveUpstream(metrics.UpstreamOverpass, upstream.OutcomeOK, started)
	c.logger.Debug("Overpass call successful", zap.Int("elements", len(result.Elements)))

	return &result, nil
}
