package main

import (
	"github.com/spf13/cobra"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/store"
)

func migrateCMD() *cobra.Command {
	var migDir string
	var direction string
	var steps int
	var cfgPath string

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return store.Migrate(migDir, cfg.Storage.Postgres.DSN(), direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "migration direction, up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "how many steps to apply, 0 applies all")
	migrate.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	return migrate
}
