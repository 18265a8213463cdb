package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/repository/cache"
	redisRepo "github.com/urban-context/internal/repository/redis"
)

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Publish a cache prefetch event",
	Long:  "Publishes a prefetch event to stream:context:prefetch and optionally waits for the worker result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		lat, _ := flags.GetFloat64("lat")
		lon, _ := flags.GetFloat64("lon")
		radius, _ := flags.GetInt("radius")
		start, _ := flags.GetString("start")
		end, _ := flags.GetString("end")
		refresh, _ := flags.GetBool("refresh")
		wait, _ := flags.GetDuration("wait")

		event := domain.PrefetchEvent{
			EventID: uuid.New(),
			Lat:     lat,
			Lon:     lon,
			RadiusM: radius,
			Start:   start,
			End:     end,
			Refresh: refresh,
		}
		if err := event.Validate(cfg.Enrich.MaxRadiusM); err != nil {
			return err
		}

		rdb, err := cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			return err
		}
		defer rdb.Close()

		// ID последнего сообщения до публикации, чтобы не читать старые результаты
		lastID := "0"
		if msgs, err := rdb.Client().XRevRangeN(ctx, domain.StreamContextPrefetched, "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
			lastID = msgs[0].ID
		}

		streams := redisRepo.NewStreamRepository(rdb.Client(), log, cfg.Worker.StreamReadTimeout)
		if err := streams.PublishToStream(ctx, domain.StreamContextPrefetch, event); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published event %s to %s\n", event.EventID, domain.StreamContextPrefetch)

		if wait <= 0 {
			return nil
		}

		done, err := awaitResult(ctx, rdb.Client(), event.EventID, lastID, wait)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(done, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// awaitResult читает stream:context:prefetched, пока не встретит результат для eventID
func awaitResult(ctx context.Context, client *redis.Client, eventID uuid.UUID, lastID string, wait time.Duration) (*domain.PrefetchDoneEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		res, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamContextPrefetched, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("no result for %s within %s", eventID, wait)
			}
			return nil, fmt.Errorf("read result stream: %w", err)
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				data, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var done domain.PrefetchDoneEvent
				if err := json.Unmarshal([]byte(data), &done); err != nil {
					continue
				}
				if done.EventID == eventID {
					return &done, nil
				}
			}
		}
	}
}

func init() {
	f := prefetchCmd.Flags()
	f.Float64("lat", 0, "latitude")
	f.Float64("lon", 0, "longitude")
	f.Int("radius", 300, "OSM buffer radius in meters")
	f.String("start", "", "weather range start (YYYY-MM-DD)")
	f.String("end", "", "weather range end (YYYY-MM-DD)")
	f.Bool("refresh", false, "force OSM recompute")
	f.Duration("wait", 0, "wait for the worker result")
	_ = prefetchCmd.MarkFlagRequired("lat")
	_ = prefetchCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(prefetchCmd)
}
