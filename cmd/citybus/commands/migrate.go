package commands

import (
	"github.com/spf13/cobra"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return database.Migrate(cmd.Context(), &rt.log, rt.cfg)
		},
	}
}
