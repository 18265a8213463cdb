package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/maintenance"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired point-cache rows",
	Long:  "Deletes OSM snapshots older than OSM_CACHE_TTL_DAYS and weather days older than today minus WEATHER_CACHE_TTL_DAYS.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		pool, err := maintenance.NewPool(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		res, err := maintenance.NewPurger(pool, cfg.Cache, log).Purge(ctx, dryRun)
		if err != nil {
			return err
		}

		verb := "deleted"
		if res.DryRun {
			verb = "would delete"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "osm_metrics_point:   %s %d rows (extracted_at < %s)\n",
			verb, res.OSMSnapshots, res.OSMCutoff.Format("2006-01-02T15:04:05Z"))
		fmt.Fprintf(cmd.OutOrStdout(), "weather_daily_point: %s %d rows (date < %s)\n",
			verb, res.WeatherRows, res.WeatherCutoff.Format(domain.DateLayout))
		return nil
	},
}

func init() {
	purgeCmd.Flags().Bool("dry-run", false, "only count expired rows")
	rootCmd.AddCommand(purgeCmd)
}
