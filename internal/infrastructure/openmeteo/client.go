package openmeteo

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/infrastructure/upstream"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/pkg/metrics"
	"go.uber.org/zap"
)

// DailyVariables - переменные дневного архива, в порядке запроса
var DailyVariables = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"apparent_temperature_max",
	"apparent_temperature_min",
	"precipitation_sum",
	"daylight_duration",
	"windspeed_10m_max",
	"winddirection_10m_dominant",
	"windgusts_10m_max",
	"relative_humidity_2m_max",
	"relative_humidity_2m_min",
}

// Производные поля
const (
	FieldElevation          = "elevation_m"
	FieldTemperatureMean    = "temperature_2m_mean"
	FieldRelativeHumidityMn = "relative_humidity_2m_mean"
)

// Client - клиент архива Open-Meteo
type Client struct {
	httpClient *http.Client
	baseURL    string
	timezone   string
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewClient(cfg *config.OpenMeteoConfig, logger *zap.Logger) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.ArchiveURL,
		timezone:   cfg.Timezone,
		maxRetries: maxRetries,
		backoff:    cfg.Backoff,
		logger:     logger.With(zap.String("upstream", metrics.UpstreamOpenMeteo)),
	}
}

type archiveResponse struct {
	Elevation *float64                   `json:"elevation"`
	Daily     map[string]json.RawMessage `json:"daily"`
}

// retryableError - ошибка, после которой имеет смысл повторить запрос
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// FetchDaily возвращает по записи на каждый день, присутствующий в ответе
func (c *Client) FetchDaily(ctx context.Context, lat, lon float64, r domain.DateRange) ([]domain.WeatherDay, error) {
	u := c.buildURL(lat, lon, r)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		days, err := c.do(ctx, u)
		if err == nil {
			return days, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var re retryableError
		if !stderrors.As(err, &re) {
			break
		}

		c.logger.Warn("Open-Meteo attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < c.maxRetries {
			if err := upstream.Sleep(ctx, upstream.LinearBackoff(c.backoff, attempt)); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Error("Open-Meteo request failed",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Error(lastErr))
	return nil, errors.ErrUpstreamUnavailable
}

func (c *Client) buildURL(lat, lon float64, r domain.DateRange) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("start_date", r.Start.Format(domain.DateLayout))
	q.Set("end_date", r.End.Format(domain.DateLayout))
	q.Set("daily", strings.Join(DailyVariables, ","))
	q.Set("timezone", c.timezone)
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, u string) ([]domain.WeatherDay, error) {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(metrics.UpstreamOpenMeteo, upstream.OutcomeTransport, started)
		return nil, retryableError{fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.ObserveUpstream(metrics.UpstreamOpenMeteo, upstream.OutcomeHTTPError, started)
		err := fmt.Errorf("open-meteo API error: status %d, body: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retryableError{err}
		}
		return nil, err
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ObserveUpstream(metrics.UpstreamOpenMeteo, upstream.OutcomeDecode, started)
		return nil, retryableError{fmt.Errorf("failed to decode response: %w", err)}
	}
	metrics.ObserveUpstream(metrics.UpstreamOpenMeteo, upstream.OutcomeOK, started)

	return c.normalize(payload)
}

// normalize раскладывает колоночный ответ daily по дням
func (c *Client) normalize(payload archiveResponse) ([]domain.WeatherDay, error) {
	if len(payload.Daily) == 0 {
		return []domain.WeatherDay{}, nil
	}

	var dates []string
	if raw, ok := payload.Daily["time"]; ok {
		if err := json.Unmarshal(raw, &dates); err != nil {
			return nil, fmt.Errorf("decode daily.time: %w", err)
		}
	}

	columns := make(map[string][]interface{}, len(payload.Daily))
	for name, raw := range payload.Daily {
		if name == "time" {
			continue
		}
		var col []interface{}
		if err := json.Unmarshal(raw, &col); err != nil {
			// не массив - переменная отсутствует
			continue
		}
		columns[name] = col
	}

	days := make([]domain.WeatherDay, 0, len(dates))
	for i, ds := range dates {
		date, err := domain.ParseDate(ds)
		if err != nil {
			c.logger.Warn("Skipping day with bad date", zap.String("date", ds))
			continue
		}

		values := make(map[string]interface{}, len(columns)+3)
		for name, col := range columns {
			if i < len(col) && col[i] != nil {
				values[name] = col[i]
			}
		}
		if payload.Elevation != nil {
			values[FieldElevation] = *payload.Elevation
		}
		addMean(values, FieldTemperatureMean, "temperature_2m_max", "temperature_2m_min")
		addMean(values, FieldRelativeHumidityMn, "relative_humidity_2m_max", "relative_humidity_2m_min")

		days = append(days, domain.WeatherDay{Date: date, Values: values})
	}

	return days, nil
}

func addMean(values map[string]interface{}, field, maxKey, minKey string) {
	hi, ok1 := values[maxKey].(float64)
	lo, ok2 := values[minKey].(float64)
	if ok1 && ok2 {
		values[field] = (hi + lo) / 2
	}
}
