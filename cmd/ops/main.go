package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/urban-context/internal/config"
	"github.com/urban-context/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "urban-context-ops",
	Short:        "Operational tasks for the urban context service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		l, err := logger.New(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
