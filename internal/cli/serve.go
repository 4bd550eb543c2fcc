package cli

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"task-planner/internal/api"
	"task-planner/internal/config"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API without the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.APIAddr = addr
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server := api.NewServer(a.users, a.tasks, a.search)
			if err := server.Run(cmd.Context(), cfg.APIAddr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Println("[info] api stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides API_ADDR)")
	return cmd
}
