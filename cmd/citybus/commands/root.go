// Package commands implements the citybus command line: the API server, the
// database migrations and a one-shot province import.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/logger"
)

// runtime is what every subcommand starts from.
type runtime struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

var rt runtime

func Execute() error {
	root := &cobra.Command{
		Use:           "citybus",
		Short:         "CityBus backend",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			loggerService := logger.NewLoggerService(cfg.Observability)
			rt = runtime{
				cfg:           cfg,
				log:           logger.NewLoggerWithService(cfg.Observability, loggerService),
				loggerService: loggerService,
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.loggerService.Shutdown()
		},
	}

	root.AddCommand(serveCmd(), migrateCmd(), importCmd())
	return root.Execute()
}
