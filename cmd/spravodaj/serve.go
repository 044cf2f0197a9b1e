package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/crawler"
	"github.com/spravodaj/spravodaj/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server and the crawl scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.store.Close()

			if cfg.Crawl.Schedule != "" {
				schedLogger := log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
				sched, err := crawler.NewScheduler(d.crawler, d.cache, cfg.Crawl.Schedule, schedLogger)
				if err != nil {
					return err
				}
				go func() {
					if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
						schedLogger.Printf("scheduler stopped: %v", err)
					}
				}()
			}

			srv := server.New(cfg.Server, d.store, d.search, d.crawler, nil)
			return srv.Run(ctx)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return serve
}
