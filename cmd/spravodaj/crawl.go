package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spravodaj/spravodaj/config"
)

func crawlCMD() *cobra.Command {
	var cfgPath string

	var crawl = &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl round over all configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if len(cfg.Sources) == 0 {
				return fmt.Errorf("no sources configured")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.store.Close()

			report := d.crawler.Run(ctx)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	crawl.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	return crawl
}
