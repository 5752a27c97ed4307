package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var (
		cfg      *config.Config
		logLevel string
	)

	root := &cobra.Command{
		Use:           "schoolfinder",
		Short:         "School discovery and admissions API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				loaded.LogLevel = logLevel
			}
			logger.SetFormat(loaded.LogFormat)
			logger.Init(loaded.LogLevel)
			logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())
			for _, w := range loaded.Warnings() {
				logger.Warnf("config: %s", w)
			}
			cfg = loaded
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	current := func() *config.Config { return cfg }
	root.AddCommand(newServeCmd(current), newSeedCmd(current))
	return root
}
