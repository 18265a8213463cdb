package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/urban-context/internal/domain"
	"github.com/urban-context/internal/pkg/errors"
	"github.com/urban-context/internal/repository/cache"
)

var metadataResetCmd = &cobra.Command{
	Use:   "metadata-reset [dataset...]",
	Short: "Drop cached layer metadata",
	Long:  "Removes cached layer metadata from Redis after a layer reload. Without arguments every dataset is reset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		datasets := args
		if len(datasets) == 0 {
			datasets = domain.LayerNames()
		}
		if unknown := domain.UnknownLayers(datasets); len(unknown) > 0 {
			return errors.ErrUnknownDataset.WithDetails(map[string]interface{}{
				"unknown":   unknown,
				"available": domain.LayerNames(),
			})
		}

		rdb, err := cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			return err
		}
		defer rdb.Close()

		repo := cache.NewCacheRepository(rdb)
		for _, name := range datasets {
			if err := repo.DeleteLayerMetadata(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset metadata for %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metadataResetCmd)
}
