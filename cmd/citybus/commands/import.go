package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/utils"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/repository"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/service"
)

func importCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import provinces from the remote source and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency > 0 {
				rt.cfg.Import.Concurrency = concurrency
			}

			srv, err := server.New(rt.cfg, &rt.log, rt.loggerService)
			if err != nil {
				return err
			}
			defer srv.Shutdown(context.Background())

			services, err := service.NewServices(srv, repository.NewRepositories(srv))
			if err != nil {
				return err
			}

			summary, err := services.ProvinceImport.Run(cmd.Context())
			if err != nil {
				return err
			}
			return utils.WriteJSON(os.Stdout, summary)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "maximum concurrent creates (default from config)")
	return cmd
}
